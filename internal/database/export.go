package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/akyairhashvil/okrcap/internal/models"
)

// SnapshotVersion is written into every export.
const SnapshotVersion = 1

// Format selects the export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts json, yaml or yml in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown format %q (want json or yaml)", s)
}

// Snapshot is the full contents of the database.
type Snapshot struct {
	Version    int                       `json:"version" yaml:"version"`
	ExportedAt time.Time                 `json:"exported_at" yaml:"exported_at"`
	Nodes      []models.OkrNode          `json:"nodes" yaml:"nodes"`
	Capacity   []models.CapacitySettings `json:"capacity" yaml:"capacity"`
}

// ImportSummary counts the rows written by Import.
type ImportSummary struct {
	Nodes    int
	Capacity int
}

// Snapshot reads every node and capacity row.
func (d *Database) Snapshot(ctx context.Context) (Snapshot, error) {
	nodes, err := d.LoadNodes(ctx, "")
	if err != nil {
		return Snapshot{}, err
	}
	capacity, err := d.ListCapacity(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if nodes == nil {
		nodes = []models.OkrNode{}
	}
	if capacity == nil {
		capacity = []models.CapacitySettings{}
	}
	return Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: time.Now().UTC(),
		Nodes:      nodes,
		Capacity:   capacity,
	}, nil
}

// Export encodes Snapshot in the requested format.
func (d *Database) Export(ctx context.Context, format Format) ([]byte, error) {
	snap, err := d.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	var out []byte
	switch format {
	case FormatYAML:
		out, err = yaml.Marshal(snap)
	default:
		out, err = json.MarshalIndent(snap, "", "  ")
	}
	if err != nil {
		return nil, wrapErr(EntitySnapshot, "encode", "", err)
	}
	return out, nil
}

// DecodeSnapshot parses an exported payload.
func DecodeSnapshot(payload []byte, format Format) (Snapshot, error) {
	var snap Snapshot
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(payload, &snap)
	default:
		err = json.Unmarshal(payload, &snap)
	}
	if err != nil {
		return Snapshot{}, wrapErr(EntitySnapshot, "decode", "", err)
	}
	if snap.Version > SnapshotVersion {
		return Snapshot{}, wrapErr(EntitySnapshot, "decode", "",
			fmt.Errorf("snapshot version %d is newer than supported version %d", snap.Version, SnapshotVersion))
	}
	return snap, nil
}

// Import writes a snapshot in one transaction, replacing rows with the same
// key. Rows absent from the snapshot are kept.
func (d *Database) Import(ctx context.Context, payload []byte, format Format) (ImportSummary, error) {
	snap, err := DecodeSnapshot(payload, format)
	if err != nil {
		return ImportSummary{}, err
	}
	var summary ImportSummary
	err = d.WithTx(ctx, func(tx *sql.Tx) error {
		if err := d.saveNodes(ctx, tx, snap.Nodes); err != nil {
			return err
		}
		summary.Nodes = len(snap.Nodes)
		for _, s := range snap.Capacity {
			if err := d.saveCapacity(ctx, tx, s); err != nil {
				return err
			}
			summary.Capacity++
		}
		return d.setSetting(ctx, tx, settingLastImport, formatTime(time.Now()))
	})
	if err != nil {
		return ImportSummary{}, err
	}
	d.log.Info("snapshot imported", "nodes", summary.Nodes, "capacity", summary.Capacity)
	return summary, nil
}

// LastImport reports when Import last succeeded.
func (d *Database) LastImport(ctx context.Context) (*time.Time, error) {
	v, ok, err := d.GetSetting(ctx, settingLastImport)
	if err != nil || !ok {
		return nil, err
	}
	t, err := parseTime(v)
	if err != nil {
		return nil, wrapErr(EntitySetting, "parse", settingLastImport, err)
	}
	return &t, nil
}
