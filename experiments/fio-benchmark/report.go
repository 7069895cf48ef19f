package main

import (
	"encoding/json"
	"io"
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/sthagen/awslabs-mountpoint-s3/pkg/readahead"
	"github.com/sthagen/awslabs-mountpoint-s3/pkg/visualization"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"

	writerSudo   = "sudo"
	writerDirect = "direct"
)

func privilegedWriter(kind string) (readahead.PrivilegedWriter, error) {
	switch kind {
	case writerSudo:
		return readahead.SudoWriter{}, nil
	case writerDirect:
		return readahead.FileWriter{}, nil
	}
	return nil, errors.Errorf("unknown privileged writer %q, expected %q or %q", kind, writerSudo, writerDirect)
}

func encode(runMetadata map[string]string, format string) ([]byte, error) {
	switch format {
	case formatJSON:
		encoded, err := json.MarshalIndent(runMetadata, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(encoded, '\n'), nil
	case formatYAML:
		return yaml.Marshal(runMetadata)
	}
	return nil, errors.Errorf("unknown metadata format %q, expected %q or %q", format, formatJSON, formatYAML)
}

// report prints encoded run metadata to output and a human readable table to table.
func report(output, table io.Writer, runMetadata map[string]string, format string) error {
	encoded, err := encode(runMetadata, format)
	if err != nil {
		return err
	}
	if _, err := output.Write(encoded); err != nil {
		return errors.Wrap(err, "cannot print run metadata")
	}
	visualization.DrawTable(table, visualization.NewKeyValueTable("Key", "Value", runMetadata))
	return nil
}

func writeMetadataFile(path string, runMetadata map[string]string, format string) error {
	encoded, err := encode(runMetadata, format)
	if err != nil {
		return err
	}
	return errors.Wrapf(ioutil.WriteFile(path, encoded, 0644), "cannot write %q", path)
}
