package runtime

// Reserved identity numbers for every built-in datatype/exception
// constructor. These are fixed constants, not allocated via State.Fresh,
// so that helper code (cons, toSlice, the prims.go arithmetic raises)
// can build or inspect list/option/order/exception values without a
// State in hand, while still matching the IDs GetInitialState binds
// into the environment for pattern matching and `handle` to compare
// against.
const (
	idNil = iota + 1
	idCons
	idNone
	idSome
	idTrue
	idFalse
	idLess
	idEqual
	idGreater
	idExnBind
	idExnMatch
	idExnDiv
	idExnOverflow
	idExnChr
	idExnSize
	idExnSubscript
	idExnEmpty
	idExnDomain

	reservedIDCeiling
)
