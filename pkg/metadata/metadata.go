// Package metadata persists run metadata in a database, tagged with the run id.
package metadata

import (
	"github.com/pkg/errors"

	"github.com/sthagen/awslabs-mountpoint-s3/pkg/conf"
)

// Predefined kinds of metadata.
// Kind groups metadata by origin: TypeRun for what the benchmark reports,
// TypeFlags for resolved flags, TypeEnviron for FIOBENCH_ environment variables
// and TypeHost for host name and start time.
const (
	TypeRun     = "run"
	TypeFlags   = "flags"
	TypeEnviron = "environ"
	TypeHost    = "host"
)

// Supported values of the metadata_db flag.
const (
	BackendNone      = "none"
	BackendCassandra = "cassandra"
	BackendInfluxDB  = "influxdb"
)

const metadataDBFlagName = "metadata_db"

// MetadataDB selects the metadata backend.
var MetadataDB = conf.NewStringFlag(metadataDBFlagName, "Database storing run metadata: none, cassandra or influxdb", BackendNone)

// Metadata interface defines methods which must be supported by DB backend.
type Metadata interface {
	// Record stores a key and value and associates it with the run id.
	Record(key string, value string, kind string) error
	// RecordMap stores a key and value map and associates it with the run id.
	RecordMap(metadata map[string]string, kind string) error
	// GetByKind retrieves single metadata kind of the run.
	GetByKind(kind string) (map[string]string, error)
	// Clear deletes all metadata entries of the run.
	Clear() error
}

// NewDefault returns the backend selected by the metadata_db flag.
// For "none" metadata is only kept in memory.
func NewDefault(runID string) (Metadata, error) {
	switch MetadataDB.Value() {
	case BackendNone:
		return NewMemory(runID), nil
	case BackendCassandra:
		return NewCassandra(runID, DefaultCassandraConfig())
	case BackendInfluxDB:
		return NewInfluxDB(runID, DefaultInfluxDBConfig())
	}
	return nil, errors.Errorf("unsupported database for metadata: %q", MetadataDB.Value())
}
