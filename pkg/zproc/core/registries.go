package core

import "github.com/gozproc/zproc/pkg/zproc/types"

// changeEntry backs the change watcher registry. isAny is set
// when the client registered with an empty key list, meaning the baseline
// is a full state snapshot rather than a per-key projection.
type changeEntry struct {
	endpoint string
	keys     []string
	isAny    bool
	baseline []types.Value    // valid when !isAny
	snapshot types.Snapshot   // valid when isAny
}

// valChangeEntry backs the value-change watcher registry.
type valChangeEntry struct {
	endpoint string
	key      string
	baseline types.Value
}

// equalsEntry backs the equals watcher registry.
type equalsEntry struct {
	endpoint string
	key      string
	target   types.Value
}

// conditionEntry backs the condition watcher registry.
type conditionEntry struct {
	endpoint  string
	condition types.Condition
}

// Registries bundles the four watcher FIFOs. Each is a standalone Queue so
// Put/Drain never cross between kinds.
type Registries struct {
	Change    *Queue[changeEntry]
	Condition *Queue[conditionEntry]
	ValChange *Queue[valChangeEntry]
	Equals    *Queue[equalsEntry]
}

func NewRegistries() *Registries {
	return &Registries{
		Change:    NewQueue[changeEntry](),
		Condition: NewQueue[conditionEntry](),
		ValChange: NewQueue[valChangeEntry](),
		Equals:    NewQueue[equalsEntry](),
	}
}
