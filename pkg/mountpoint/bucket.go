package mountpoint

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// headBucket sends HeadBucket for the configured bucket with credentials from the
// default AWS chain. A custom endpoint is addressed path-style.
func headBucket(ctx context.Context, conf Config) error {
	awsConfig := aws.NewConfig()
	if conf.Region != "" {
		awsConfig = awsConfig.WithRegion(conf.Region)
	}
	if conf.EndpointURL != "" {
		awsConfig = awsConfig.WithEndpoint(conf.EndpointURL).WithS3ForcePathStyle(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return errors.Wrap(err, "cannot create AWS session")
	}
	if _, err := s3.New(sess).HeadBucketWithContext(ctx, &s3.HeadBucketInput{Bucket: aws.String(conf.Bucket)}); err != nil {
		return errors.Wrapf(err, "bucket %q is not accessible", conf.Bucket)
	}
	logrus.Debugf("bucket %q is accessible", conf.Bucket)
	return nil
}
