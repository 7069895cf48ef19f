package metadata

import (
	"fmt"
	"strings"
	"time"

	"github.com/influxdata/influxdb/client/v2"
	"github.com/pkg/errors"

	"github.com/sthagen/awslabs-mountpoint-s3/pkg/conf"
)

const influxMeasurement = "metadata"

// InfluxDBConfig holds configuration for InfluxDB.
type InfluxDBConfig struct {
	Address            string `help:"Address of InfluxDB endpoint for metadata" default:"127.0.0.1"`
	Port               int    `help:"Port of InfluxDB endpoint" default:"8086"`
	Name               string `help:"Name of the database holding metadata" default:"mountpoint_benchmark"`
	Username           string `help:"InfluxDB username"`
	Password           string `help:"InfluxDB password"`
	InsecureSkipVerify bool   `help:"Skip TLS certificate verification" default:"false"`
	CreateDatabase     bool   `help:"Create the database when it does not exist" default:"true"`

	flagPrefix string
}

var defaultInfluxDBConfig = InfluxDBConfig{
	flagPrefix: "influxdb",
}

func init() {
	conf.Process(&defaultInfluxDBConfig)
}

// DefaultInfluxDBConfig applies the InfluxDB settings from the command line flags and
// environment variables.
func DefaultInfluxDBConfig() InfluxDBConfig {
	conf.Process(&defaultInfluxDBConfig)
	return defaultInfluxDBConfig
}

func (c InfluxDBConfig) httpConfig() client.HTTPConfig {
	return client.HTTPConfig{
		Addr:               fmt.Sprintf("http://%s:%d", c.Address, c.Port),
		Username:           c.Username,
		Password:           c.Password,
		InsecureSkipVerify: c.InsecureSkipVerify,
	}
}

// InfluxDB keeps the InfluxDB client and tags metadata with the run id.
type InfluxDB struct {
	runID   string
	session client.Client
	config  InfluxDBConfig
}

// NewInfluxDB returns the Metadata backend from a run id and configuration.
func NewInfluxDB(runID string, config InfluxDBConfig) (Metadata, error) {
	session, err := client.NewHTTPClient(config.httpConfig())
	if err != nil {
		return nil, errors.Wrapf(err, "cannot create influx client for run %s", runID)
	}
	metadata := &InfluxDB{
		runID:   runID,
		session: session,
		config:  config,
	}

	if config.CreateDatabase {
		if err := metadata.query(fmt.Sprintf("CREATE DATABASE %s", config.Name), "", nil); err != nil {
			return nil, errors.Wrapf(err, "cannot create influx database %q", config.Name)
		}
	}
	return metadata, nil
}

func (m *InfluxDB) query(command, database string, parameters map[string]interface{}) error {
	_, err := m.queryResponse(command, database, parameters)
	return err
}

func (m *InfluxDB) queryResponse(command, database string, parameters map[string]interface{}) (*client.Response, error) {
	response, err := m.session.Query(client.NewQueryWithParameters(command, database, "", parameters))
	if err != nil {
		return nil, err
	}
	if response.Error() != nil {
		return nil, errors.Wrapf(response.Error(), "response from influxdb contained error for run %s", m.runID)
	}
	return response, nil
}

// storeMap writes metadata as a single point tagged with kind and run id.
func (m *InfluxDB) storeMap(metadata map[string]string, kind string) error {
	if len(metadata) == 0 {
		return nil
	}

	batchPoints, err := client.NewBatchPoints(client.BatchPointsConfig{Database: m.config.Name})
	if err != nil {
		return errors.Wrapf(err, "creation of batch points for InfluxDB failed for metadata kind %q", kind)
	}

	tags := map[string]string{"kind": kind, "run_id": m.runID}
	fields := make(map[string]interface{}, len(metadata))
	for key, value := range metadata {
		fields[key] = value
	}
	point, err := client.NewPoint(influxMeasurement, tags, fields, time.Now())
	if err != nil {
		return errors.Wrapf(err, "cannot create new point, kind %q", kind)
	}
	batchPoints.AddPoint(point)

	return errors.Wrapf(m.session.Write(batchPoints), "cannot publish metadata of kind %q", kind)
}

// Record stores a key and value and associates it with the run id.
func (m *InfluxDB) Record(key, value, kind string) error {
	return m.storeMap(map[string]string{key: value}, kind)
}

// RecordMap stores a key and value map and associates it with the run id.
func (m *InfluxDB) RecordMap(metadata map[string]string, kind string) error {
	return m.storeMap(metadata, kind)
}

// GetByKind retrieves single kind of the run. If duplicates are found the last one is returned.
func (m *InfluxDB) GetByKind(kind string) (map[string]string, error) {
	cmd := fmt.Sprintf("SELECT last(*) FROM %s WHERE run_id = $run_id AND kind = $kind GROUP BY run_id, kind", influxMeasurement)
	response, err := m.queryResponse(cmd, m.config.Name, map[string]interface{}{"run_id": m.runID, "kind": kind})
	if err != nil {
		return nil, err
	}

	metadata := map[string]string{}
	for _, result := range response.Results {
		for _, row := range result.Series {
			for _, value := range row.Values {
				for idx, cell := range value {
					// Column 0 is the timestamp; results may be sparse.
					if cell == nil || idx == 0 {
						continue
					}
					column := strings.TrimPrefix(row.Columns[idx], "last_")
					metadata[column] = fmt.Sprint(cell)
				}
			}
		}
	}
	if len(metadata) == 0 {
		return nil, errors.Errorf("no metadata of kind %q for run %q", kind, m.runID)
	}
	return metadata, nil
}

// Clear deletes all metadata entries of the run.
func (m *InfluxDB) Clear() error {
	cmd := fmt.Sprintf("DROP SERIES FROM %s WHERE run_id = $run_id", influxMeasurement)
	return m.query(cmd, m.config.Name, map[string]interface{}{"run_id": m.runID})
}
