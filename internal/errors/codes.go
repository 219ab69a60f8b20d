package errors

// Error codes for the LGP engine
// These codes are used in error messages and diagnostics
// to provide consistent error identification across the toolchain.
//
// Error code ranges:
// L0001-L0099: Configuration errors
// L0100-L0199: Register file errors
// L0200-L0299: Operation/instruction errors
// L0300-L0399: Generator errors
// L0400-L0499: Variation operator errors
// L0500-L0599: Evaluation errors

const (
	// L0001: Invalid or inconsistent configuration values
	ErrorInvalidConfiguration = "L0001"

	// L0002: Operation name not present in the registry
	ErrorUnknownOperation = "L0002"

	// L0100: Register index outside the register file
	ErrorRegisterOutOfRange = "L0100"

	// L0101: Write attempted on a constant register
	ErrorConstantWrite = "L0101"

	// L0102: Dataset row shape disagrees with the input partition
	ErrorRowShape = "L0102"

	// L0200: Operation applied with the wrong argument count
	ErrorArity = "L0200"

	// L0300: Generator exhausted its rejection budget
	ErrorGenerationExhausted = "L0300"

	// L0400: Crossover or mutation could not satisfy length bounds
	ErrorOperatorFailure = "L0400"

	// L0500: Program execution failed during evaluation
	ErrorEvaluation = "L0500"
)
