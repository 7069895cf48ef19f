package visualization

import (
	"bytes"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestKeyValueTable(t *testing.T) {
	Convey("When drawing a key value table", t, func() {
		table := NewKeyValueTable("Key", "Value", map[string]string{
			"target_pid":      "1234",
			"fio_output_file": "fio.read.json",
		})
		buffer := &bytes.Buffer{}
		DrawTable(buffer, table)
		output := buffer.String()

		Convey("Headers and rows are rendered with rows sorted by key", func() {
			So(output, ShouldContainSubstring, "KEY")
			So(output, ShouldContainSubstring, "fio.read.json")
			So(strings.Index(output, "fio_output_file"), ShouldBeLessThan, strings.Index(output, "target_pid"))
		})
	})
}
