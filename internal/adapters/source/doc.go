// Package source provides the dataset.Source implementations: csv readers, files,
// remote csv over http and read only postgres and clickhouse tables
package source
