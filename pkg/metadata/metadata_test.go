package metadata

import (
	"os"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMemory(t *testing.T) {
	Convey("While using in-memory metadata", t, func() {
		metadata := NewMemory("run-1")

		So(metadata.Record("target_pid", "4242", TypeRun), ShouldBeNil)
		So(metadata.RecordMap(map[string]string{"fio_output_file": "fio.read.json", "target_pid": "4243"}, TypeRun), ShouldBeNil)

		Convey("Maps of the same kind are merged", func() {
			run, err := metadata.GetByKind(TypeRun)
			So(err, ShouldBeNil)
			So(run, ShouldResemble, map[string]string{"fio_output_file": "fio.read.json", "target_pid": "4243"})
		})

		Convey("Unknown kind gives an error", func() {
			_, err := metadata.GetByKind(TypeFlags)
			So(err, ShouldNotBeNil)
		})

		Convey("Clear removes everything", func() {
			So(metadata.Clear(), ShouldBeNil)
			_, err := metadata.GetByKind(TypeRun)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestNewDefault(t *testing.T) {
	Convey("When no metadata database is chosen metadata is kept in memory", t, func() {
		metadata, err := NewDefault("run-1")
		So(err, ShouldBeNil)
		_, ok := metadata.(*Memory)
		So(ok, ShouldBeTrue)
	})
}

func TestRecordRuntimeEnv(t *testing.T) {
	Convey("While recording runtime environment", t, func() {
		os.Setenv("FIOBENCH_TEST_RECORD", "recorded")
		defer os.Unsetenv("FIOBENCH_TEST_RECORD")

		metadata := NewMemory("run-1")
		start := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
		So(RecordRuntimeEnv(metadata, start), ShouldBeNil)

		Convey("Prefixed environment variables are stored", func() {
			environ, err := metadata.GetByKind(TypeEnviron)
			So(err, ShouldBeNil)
			So(environ["FIOBENCH_TEST_RECORD"], ShouldEqual, "recorded")
		})

		Convey("Flags are stored", func() {
			flags, err := metadata.GetByKind(TypeFlags)
			So(err, ShouldBeNil)
			So(flags[metadataDBFlagName], ShouldEqual, BackendNone)
		})

		Convey("Host and start time are stored", func() {
			host, err := metadata.GetByKind(TypeHost)
			So(err, ShouldBeNil)
			So(host["time"], ShouldEqual, "2024-05-06T07:08:09Z")
			hostname, _ := os.Hostname()
			So(host["host"], ShouldEqual, hostname)
		})
	})
}

func TestDefaultConfigs(t *testing.T) {
	Convey("Database configs have default settings", t, func() {
		cassandra := DefaultCassandraConfig()
		So(cassandra.Address, ShouldEqual, "127.0.0.1")
		So(cassandra.Port, ShouldEqual, 9042)
		So(cassandra.KeyspaceName, ShouldEqual, "mountpoint_benchmark")
		So(cassandra.Timeout, ShouldEqual, 10*time.Second)

		influx := DefaultInfluxDBConfig()
		So(influx.httpConfig().Addr, ShouldEqual, "http://127.0.0.1:8086")
		So(influx.Name, ShouldEqual, "mountpoint_benchmark")
	})

	Convey("Cassandra cluster config follows the settings", t, func() {
		config := DefaultCassandraConfig()
		config.Username = "user"
		config.Password = "secret"
		config.SslEnabled = true
		config.SslCAPath = "/etc/ca.pem"

		cluster := clusterConfig(config)
		So(cluster.Hosts, ShouldResemble, []string{"127.0.0.1"})
		So(cluster.Port, ShouldEqual, 9042)
		So(cluster.Authenticator, ShouldNotBeNil)
		So(cluster.SslOpts, ShouldNotBeNil)
		So(cluster.SslOpts.CaPath, ShouldEqual, "/etc/ca.pem")
	})
}

type closingMemory struct {
	*Memory
	closed int
}

func (m *closingMemory) Close() { m.closed++ }

func TestClose(t *testing.T) {
	Convey("While closing metadata backends", t, func() {
		Convey("Backend with a session is closed once", func() {
			metadata := &closingMemory{Memory: NewMemory("run-1")}
			Close(metadata)
			So(metadata.closed, ShouldEqual, 1)
		})

		Convey("Backend without a session is left alone", func() {
			So(func() { Close(NewMemory("run-1")) }, ShouldNotPanic)
		})
	})
}
