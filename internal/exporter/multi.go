package exporter

import (
	"strings"

	"ashcli/pkg/contracts/domain"
)

// MultiSink fans one table out to several sinks, for runs that want CSV and
// Excel outputs side by side. Write returns the written paths joined with
// ", "; the first sink error aborts the remaining writes.
type MultiSink []Sink

// Sink matches the pipeline's sink contract without importing it.
type Sink interface {
	Write(records []domain.BoardRecord, label string) (string, error)
}

func (m MultiSink) Write(records []domain.BoardRecord, label string) (string, error) {
	paths := make([]string, 0, len(m))
	for _, sink := range m {
		path, err := sink.Write(records, label)
		if err != nil {
			return "", err
		}
		paths = append(paths, path)
	}
	return strings.Join(paths, ", "), nil
}
