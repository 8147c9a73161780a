package scoring

import "fmt"

// Warning texts. Guard warnings name the skipped dimension.
const (
	warnBackendMismatch = "reference and user use different graphics backends (%s vs %s); expect incompatibility or rendering issues"
	warnShaderModel     = "reference and user support different shader models (level %d vs %d); expect incompatibility or rendering issues"
	warnMultithread     = "reference supports GPU multithreading, user does not"
	warnShadows         = "reference supports shadows, user does not"
	warnCompute         = "reference supports compute shaders, user does not"
	warnImageEffects    = "reference supports image effects, user does not"

	warnReferenceUnknown = "reference %s is unknown; %s ratio skipped"
	warnReferenceZero    = "reference %s is zero; %s ratio skipped"
	warnUserUnknown      = "user %s is unknown; %s ratio skipped"
	warnReferenceInvalid = "reference %s is not positive; %s ratio skipped"
	warnUserInvalid      = "user %s is not positive; %s ratio skipped"
	warnRatioOverflow    = "%s ratio is out of range; %s ratio skipped"
	warnOverflow         = "%s is out of range; treated as parity"
)

const shaderLevelTolerance = 5

// dimension names a compared quantity in guard warnings.
type dimension string

const (
	dimGPUMemory      dimension = "GPU memory"
	dimShaderLevel    dimension = "shader level"
	dimTextureSize    dimension = "max texture size"
	dimSLIScalar      dimension = "SLI scalar"
	dimProcessorCount dimension = "processor count"
	dimProcessorFreq  dimension = "processor frequency"
	dimSystemMemory   dimension = "system memory"
	dimGPUScore       dimension = "GPU score"
)

// ledger accumulates warnings for a single run.
type ledger struct {
	warnings []string
}

func newLedger() *ledger {
	return &ledger{warnings: []string{}}
}

func (l *ledger) warn(format string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}
