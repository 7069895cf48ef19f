package metadata

import (
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sthagen/awslabs-mountpoint-s3/pkg/conf"
)

// CassandraConfig encodes the settings for connecting to the database.
type CassandraConfig struct {
	Address           string        `help:"Address of Cassandra DB endpoint for metadata" default:"127.0.0.1"`
	Port              int           `help:"Port of Cassandra DB endpoint" default:"9042"`
	KeyspaceName      string        `help:"Keyspace holding the metadata table" name:"Keyspace" default:"mountpoint_benchmark"`
	CreateKeyspace    bool          `help:"Create the keyspace when it does not exist" default:"true"`
	Username          string        `help:"Cassandra username"`
	Password          string        `help:"Cassandra password"`
	ConnectionTimeout time.Duration `help:"Initial connection timeout" default:"10s"`
	Timeout           time.Duration `help:"Query timeout" default:"10s"`
	SslEnabled        bool          `help:"Connect to Cassandra over TLS" default:"false"`
	SslHostValidation bool          `help:"Validate Cassandra host certificate" default:"false"`
	SslCAPath         string        `help:"Path to CA certificate"`
	SslCertPath       string        `help:"Path to client certificate"`
	SslKeyPath        string        `help:"Path to client key"`

	flagPrefix string
}

var defaultCassandraConfig = CassandraConfig{
	flagPrefix: "cassandra",
}

func init() {
	conf.Process(&defaultCassandraConfig)
}

// DefaultCassandraConfig applies the Cassandra settings from the command line flags and
// environment variables.
func DefaultCassandraConfig() CassandraConfig {
	conf.Process(&defaultCassandraConfig)
	return defaultCassandraConfig
}

// Cassandra keeps the Cassandra session alive and tags metadata with the run id.
type Cassandra struct {
	runID   string
	config  CassandraConfig
	session *gocql.Session
}

// NewCassandra returns the Metadata backend from a run id and configuration.
func NewCassandra(runID string, config CassandraConfig) (Metadata, error) {
	metadata := &Cassandra{
		runID:  runID,
		config: config,
	}
	if err := metadata.connect(); err != nil {
		return nil, errors.Wrapf(err, "cannot connect to cassandra at %s:%d", config.Address, config.Port)
	}
	return metadata, nil
}

func sslOptions(config CassandraConfig) *gocql.SslOptions {
	return &gocql.SslOptions{
		EnableHostVerification: config.SslHostValidation,
		CaPath:                 config.SslCAPath,
		CertPath:               config.SslCertPath,
		KeyPath:                config.SslKeyPath,
	}
}

func clusterConfig(config CassandraConfig) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(config.Address)
	cluster.Port = config.Port
	cluster.Consistency = gocql.LocalOne
	cluster.SerialConsistency = gocql.LocalSerial
	cluster.ProtoVersion = 4
	cluster.ConnectTimeout = config.ConnectionTimeout
	cluster.Timeout = config.Timeout

	if config.Username != "" && config.Password != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: config.Username,
			Password: config.Password,
		}
	}
	if config.SslEnabled {
		cluster.SslOpts = sslOptions(config)
	}
	return cluster
}

func createKeyspace(config CassandraConfig) error {
	session, err := clusterConfig(config).CreateSession()
	if err != nil {
		return errors.Wrap(err, "cannot create session for creating keyspace")
	}
	defer session.Close()

	query := fmt.Sprintf("CREATE KEYSPACE IF NOT EXISTS %s WITH REPLICATION = {'class': 'SimpleStrategy', 'replication_factor': 1};", config.KeyspaceName)
	return errors.Wrap(session.Query(query).Exec(), "cannot create keyspace")
}

// connect creates a session to the Cassandra cluster.
func (m *Cassandra) connect() error {
	if m.config.CreateKeyspace {
		if err := createKeyspace(m.config); err != nil {
			return err
		}
	}

	cluster := clusterConfig(m.config)
	cluster.Keyspace = m.config.KeyspaceName
	session, err := cluster.CreateSession()
	if err != nil {
		return err
	}
	m.session = session

	logrus.Debugf("connected to cassandra keyspace %q", m.config.KeyspaceName)
	return errors.Wrap(session.Query("CREATE TABLE IF NOT EXISTS metadata (run_id text, kind text, time timestamp, timeuuid TIMEUUID, metadata map<text,text>, PRIMARY KEY ((run_id), timeuuid),) WITH CLUSTERING ORDER BY (timeuuid DESC);").Exec(),
		"cannot create metadata table")
}

func (m *Cassandra) storeMap(metadata map[string]string, kind string) error {
	err := m.session.Query(`INSERT INTO metadata (run_id, kind, time, timeuuid, metadata) VALUES (?, ?, ?, ?, ?)`,
		m.runID, kind, time.Now(), gocql.TimeUUID(), metadata).Exec()
	return errors.Wrapf(err, "cannot publish metadata of kind %q", kind)
}

// Record stores a key and value and associates it with the run id.
func (m *Cassandra) Record(key, value, kind string) error {
	return m.storeMap(map[string]string{key: value}, kind)
}

// RecordMap stores a key and value map and associates it with the run id.
func (m *Cassandra) RecordMap(metadata map[string]string, kind string) error {
	return m.storeMap(metadata, kind)
}

// GetByKind retrieves single kind of the run.
// Returns error if no kind or too many groups found.
func (m *Cassandra) GetByKind(kind string) (map[string]string, error) {
	var metadata map[string]string
	maps := []map[string]string{}

	iter := m.session.Query(`SELECT metadata FROM metadata WHERE run_id = ? AND kind = ? ALLOW FILTERING`, m.runID, kind).Iter()
	for iter.Scan(&metadata) {
		maps = append(maps, metadata)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	if len(maps) != 1 {
		return nil, errors.Errorf("cannot retrieve metadata for run %q and kind %q: %d entries found", m.runID, kind, len(maps))
	}
	return maps[0], nil
}

// Clear deletes all metadata entries of the run.
func (m *Cassandra) Clear() error {
	return m.session.Query(`DELETE FROM metadata WHERE run_id = ?`, m.runID).Exec()
}

// Close closes the session.
func (m *Cassandra) Close() {
	m.session.Close()
}
