package bptree

import "bptreeidx/util"

// BadOpcodes is raised by StartScan when lowOp/highOp name anything
// outside the four-operator closed set (Gt, Gte, Lt, Lte).
func BadOpcodes() error {
	return util.NewIndexError(util.KindBadOpcodes, "bad opcodes for scan range", nil)
}

// BadScanRange is raised by StartScan when lowVal > highVal, whatever
// the operators. A range with lowVal == highVal and a strict operator
// admits no key but is not rejected here; StartScan reports it as
// NoSuchKeyFound instead.
func BadScanRange() error {
	return util.NewIndexError(util.KindBadScanRange, "bad scan range", nil)
}

// NoSuchKeyFound is raised by StartScan when the descent for lowVal
// lands past every key the leaf chain actually holds.
func NoSuchKeyFound() error {
	return util.NewIndexError(util.KindNoSuchKeyFound, "no such key found", nil)
}

// ScanNotInitialized is raised by ScanNext/EndScan when no StartScan is
// currently in progress.
func ScanNotInitialized() error {
	return util.NewIndexError(util.KindScanNotInitialized, "scan not initialized", nil)
}

// IndexScanCompleted is raised by ScanNext once the cursor has walked
// past highVal or off the end of the sibling chain.
func IndexScanCompleted() error {
	return util.NewIndexError(util.KindIndexScanCompleted, "index scan completed", nil)
}

// BadIndexInfo is raised by New/NewWithPoolSize when an existing index
// file's header page does not match the relation name/attribute offset
// the caller asked to open, or names a key type other than INTEGER.
func BadIndexInfo(reason string) error {
	return util.NewIndexError(util.KindBadIndexInfo, "bad index info: "+reason, nil)
}
