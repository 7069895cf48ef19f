package metadata

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/sthagen/awslabs-mountpoint-s3/pkg/conf"
)

// RecordRuntimeEnv stores resolved flags, FIOBENCH_ environment variables,
// host name and run start time.
func RecordRuntimeEnv(metadata Metadata, runStart time.Time) error {
	if err := metadata.RecordMap(conf.GetFlags(), TypeFlags); err != nil {
		return err
	}

	if err := recordEnv(metadata, conf.EnvironmentPrefix); err != nil {
		return err
	}

	hostname, err := os.Hostname()
	if err != nil {
		return errors.Wrap(err, "cannot retrieve hostname")
	}
	return metadata.RecordMap(map[string]string{"time": runStart.Format(time.RFC3339), "host": hostname}, TypeHost)
}

// recordEnv stores all environment variables starting with prefix.
func recordEnv(metadata Metadata, prefix string) error {
	envMetadata := map[string]string{}
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, prefix) {
			fields := strings.SplitN(env, "=", 2)
			envMetadata[fields[0]] = fields[1]
		}
	}
	return metadata.RecordMap(envMetadata, TypeEnviron)
}

// Close releases the database session of backends holding one.
func Close(metadata Metadata) {
	if closer, ok := metadata.(interface{ Close() }); ok {
		closer.Close()
	}
}
