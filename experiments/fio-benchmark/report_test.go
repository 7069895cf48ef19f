package main

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"gopkg.in/yaml.v3"

	"github.com/sthagen/awslabs-mountpoint-s3/pkg/readahead"
)

func TestReport(t *testing.T) {
	runMetadata := map[string]string{
		"fio_output_file": "fio.read.json",
		"target_pid":      "4242",
	}

	Convey("When reporting run metadata", t, func() {
		output := &bytes.Buffer{}
		table := &bytes.Buffer{}

		Convey("JSON is printed to output and a table to the other writer", func() {
			So(report(output, table, runMetadata, formatJSON), ShouldBeNil)
			decoded := map[string]string{}
			So(json.Unmarshal(output.Bytes(), &decoded), ShouldBeNil)
			So(decoded, ShouldResemble, runMetadata)
			So(table.String(), ShouldContainSubstring, "fio.read.json")
		})

		Convey("YAML is supported", func() {
			So(report(output, table, runMetadata, formatYAML), ShouldBeNil)
			decoded := map[string]string{}
			So(yaml.Unmarshal(output.Bytes(), &decoded), ShouldBeNil)
			So(decoded, ShouldResemble, runMetadata)
		})

		Convey("Unknown format is rejected", func() {
			So(report(output, table, runMetadata, "xml"), ShouldNotBeNil)
			So(output.Len(), ShouldEqual, 0)
		})

		Convey("Metadata file holds the encoded metadata", func() {
			dir, err := ioutil.TempDir("", "report")
			So(err, ShouldBeNil)
			defer os.RemoveAll(dir)

			path := filepath.Join(dir, "metadata.json")
			So(writeMetadataFile(path, runMetadata, formatJSON), ShouldBeNil)
			content, err := ioutil.ReadFile(path)
			So(err, ShouldBeNil)
			So(string(content), ShouldContainSubstring, `"target_pid": "4242"`)
		})
	})
}

func TestPrivilegedWriter(t *testing.T) {
	Convey("Privileged writer is chosen by name", t, func() {
		writer, err := privilegedWriter("sudo")
		So(err, ShouldBeNil)
		So(writer, ShouldHaveSameTypeAs, readahead.SudoWriter{})

		writer, err = privilegedWriter("direct")
		So(err, ShouldBeNil)
		So(writer, ShouldHaveSameTypeAs, readahead.FileWriter{})

		_, err = privilegedWriter("su")
		So(err, ShouldNotBeNil)
	})
}
