package datapkg

// StageID identifies one step of the S-1..S6 pipeline state machine.
type StageID string

const (
	StageSMinus1 StageID = "S-1"
	StageS0      StageID = "S0"
	StageS1      StageID = "S1"
	StageS2      StageID = "S2"
	StageS3      StageID = "S3"
	StageS4      StageID = "S4"
	StageS5      StageID = "S5"
	StageS6      StageID = "S6"
)

// stageOrder lists the stages in their linear pipeline order; S4 is the
// only conditional (retry) stage. WriteStage does not check writes against
// this order.
var stageOrder = []StageID{StageSMinus1, StageS0, StageS1, StageS2, StageS3, StageS4, StageS5, StageS6}

// deepCopyValue clones an arbitrary JSON-shaped value (the only shapes a
// stage ever stores: map[string]any, []any, and JSON scalar types).
// Deep-copying on both write and read is what makes stage artifacts
// immutable in practice, per spec.md's DataPackage invariants.
func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopyValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopyValue(val)
		}
		return out
	default:
		// Scalars (string, float64, bool, nil, time.Time, etc.) are
		// copied by value already.
		return t
	}
}

func deepCopyData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	copied := deepCopyValue(data).(map[string]any)
	return copied
}
