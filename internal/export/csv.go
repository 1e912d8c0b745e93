package export

import (
	"encoding/csv"
	"io"

	"github.com/John-Robertt/vidfilter/internal/domain"
	"github.com/John-Robertt/vidfilter/internal/infra/fsx"
)

// WriteCSV 写出表头 + 每条结果一行；引号转义交给 encoding/csv。
func WriteCSV(w io.Writer, matches []domain.Match) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, m := range matches {
		if err := cw.Write(Row(m)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func SaveCSV(path string, matches []domain.Match) error {
	return fsx.WriteAtomic(path, func(w io.Writer) error {
		return WriteCSV(w, matches)
	})
}
