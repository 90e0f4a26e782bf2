package cfr

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/lox/cfrsolve/internal/atomicfile"
	"github.com/lox/cfrsolve/sdk/cfr/npyio"
)

// checkpointFileVersion guards SidecarMeta's schema; bump and branch in
// LoadCheckpoint if the shape of what's persisted ever changes.
const checkpointFileVersion = 1

// SidecarMeta is the JSON file written alongside a checkpoint's .npy arrays
// (spec §6.2 ADDED), grounded on the teacher's checkpointSnapshot shape:
// version, iteration, training config, and (here, replacing the teacher's
// map-keyed-by-string regret snapshot) the ordered key list that recovers
// each dense row's InfoSetKey without rerunning the perfect-hash build.
type SidecarMeta struct {
	Version   int          `json:"version"`
	Iteration int64        `json:"iteration"`
	Config    EngineConfig `json:"config"`
	Keys      []string     `json:"keys"` // row index -> InfoSetKey, shared by every player's avg-policy file and the regret file
	Dims      []int        `json:"dims"` // row index -> that infoset's true legal-action count (rows are zero-padded to ActionMax in the .npy arrays)
}

// SaveCheckpoint writes prefix+"_p<k>.npy" (average policy, one file per
// player), prefix+"_state.npy" (shared raw regret table), and
// prefix+".checkpoint.json" (SidecarMeta). actionMax bounds every row's
// width; shorter rows are zero-padded. Every file is written atomically via
// internal/atomicfile.
func SaveCheckpoint(prefix string, table *Table, players []int, cfg EngineConfig, iteration int64, actionMax int) error {
	keys := table.Keys()
	strKeys := make([]string, len(keys))
	for i, k := range keys {
		strKeys[i] = string(k)
	}

	compactor, err := npyio.BuildCompactor(strKeys)
	if err != nil {
		return fmt.Errorf("cfr: checkpoint: %w", err)
	}
	n := compactor.Len()

	regret := make([]float64, n*actionMax)
	dims := make([]int, n)
	perPlayerPolicy := make(map[int][]float64, len(players))
	for _, p := range players {
		perPlayerPolicy[p] = make([]float64, n*actionMax)
	}

	for _, k := range keys {
		m := table.Get(k)
		row := compactor.Index(string(k))
		dims[row] = m.Dim()
		copy(regret[row*actionMax:], m.Regret())
		if policy, ok := perPlayerPolicy[m.Player()]; ok {
			copy(policy[row*actionMax:], m.RawAveragePolicy())
		}
	}

	if err := npyio.WriteFloat64Array(prefix+"_state.npy", regret, n, actionMax); err != nil {
		return fmt.Errorf("cfr: checkpoint: writing regret array: %w", err)
	}
	for _, p := range players {
		path := fmt.Sprintf("%s_p%d.npy", prefix, p)
		if err := npyio.WriteFloat64Array(path, perPlayerPolicy[p], n, actionMax); err != nil {
			return fmt.Errorf("cfr: checkpoint: writing player %d average policy: %w", p, err)
		}
	}

	meta := SidecarMeta{
		Version:   checkpointFileVersion,
		Iteration: iteration,
		Config:    cfg,
		Keys:      compactor.Keys(),
		Dims:      dims,
	}
	buf, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("cfr: checkpoint: encoding sidecar: %w", err)
	}
	return atomicfile.WriteFile(prefix+".checkpoint.json", buf, 0o644)
}

// LoadCheckpoint restores a Table and its sidecar metadata from the files
// SaveCheckpoint wrote under prefix. Regret is always restored; average
// policy is restored only for players whose file exists (a fresh run with
// no prior checkpoint for a given prefix has none). A row's owning player is
// taken from the player file in which that row is non-zero; a row that is
// zero in every player file keeps Player() == -1.
func LoadCheckpoint(prefix string, players []int, actionMax int) (*Table, SidecarMeta, error) {
	var meta SidecarMeta
	metaBuf, err := os.ReadFile(prefix + ".checkpoint.json")
	if err != nil {
		return nil, meta, fmt.Errorf("cfr: checkpoint: reading sidecar: %w", err)
	}
	if err := json.Unmarshal(metaBuf, &meta); err != nil {
		return nil, meta, fmt.Errorf("cfr: checkpoint: decoding sidecar: %w", err)
	}
	if meta.Version != checkpointFileVersion {
		return nil, meta, invariantf("LoadCheckpoint", "unsupported checkpoint version %d", meta.Version)
	}

	regret, rows, cols, err := npyio.ReadFloat64Array(prefix + "_state.npy")
	if err != nil {
		return nil, meta, fmt.Errorf("cfr: checkpoint: reading regret array: %w", err)
	}
	if cols != actionMax {
		return nil, meta, invariantf("LoadCheckpoint", "regret array width %d does not match ActionMax %d", cols, actionMax)
	}
	if rows != len(meta.Keys) {
		return nil, meta, invariantf("LoadCheckpoint", "regret array rows %d does not match sidecar key count %d", rows, len(meta.Keys))
	}

	if len(meta.Dims) != len(meta.Keys) {
		return nil, meta, invariantf("LoadCheckpoint", "sidecar has %d keys but %d dims", len(meta.Keys), len(meta.Dims))
	}

	table := NewTable()
	for row, keyStr := range meta.Keys {
		key := InfoSetKey(keyStr)
		dim := meta.Dims[row]
		m := table.Get(key)
		if err := m.SetDim(dim); err != nil {
			return nil, meta, err
		}
		m.SetRegret(regret[row*actionMax : row*actionMax+dim])
	}

	for _, p := range players {
		policy, prows, pcols, err := npyio.ReadFloat64Array(fmt.Sprintf("%s_p%d.npy", prefix, p))
		if err != nil {
			continue // no prior average policy for this player
		}
		if pcols != actionMax || prows != len(meta.Keys) {
			return nil, meta, invariantf("LoadCheckpoint", "player %d average-policy array shape (%d,%d) does not match (%d,%d)", p, prows, pcols, len(meta.Keys), actionMax)
		}
		for row, keyStr := range meta.Keys {
			dim := meta.Dims[row]
			vals := policy[row*actionMax : row*actionMax+dim]
			owned := false
			for _, v := range vals {
				if v != 0 {
					owned = true
					break
				}
			}
			if !owned {
				continue // SaveCheckpoint leaves rows of other players' infosets zero
			}
			m := table.Get(InfoSetKey(keyStr))
			if err := m.SetPlayer(p); err != nil {
				return nil, meta, err
			}
			m.SetAveragePolicy(vals)
		}
	}

	return table, meta, nil
}
