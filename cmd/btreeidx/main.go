// Command btreeidx is a thin driver over the bptree library: build an
// index from a heap file, run a range scan against one, or print its
// shape. It introduces no index semantics of its own.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"

	"bptreeidx/bptree"
	"bptreeidx/heap"
	"bptreeidx/util"
)

func main() {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	var err error
	switch args[0] {
	case "build":
		err = runBuild(args[1:])
	case "scan":
		err = runScan(args[1:])
	case "inspect":
		err = runInspect(args[1:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatalf("btreeidx: %v", err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  btreeidx build [-recordsize N] [-heapdir path] [-poolsize N] <dir> <relation> <attrOffset>
  btreeidx scan [-poolsize N] <dir> <relation> <attrOffset> <lowOp> <lowVal> <highOp> <highVal>
  btreeidx inspect [-dump path] [-poolsize N] <dir> <relation> <attrOffset>

operators: gt, gte, lt, lte`)
}

func runBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	recordSize := fs.Int("recordsize", 16, "fixed record size (bytes) of the source heap file")
	heapDir := fs.String("heapdir", "", "directory holding the source heap file (defaults to <dir>)")
	poolSize := fs.Int("poolsize", bptree.DefaultBufferPoolSize, "buffer pool frame count")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 3 {
		return fmt.Errorf("build requires <dir> <relation> <attrOffset>")
	}

	dir, relation := fs.Arg(0), fs.Arg(1)
	attrOffset, err := strconv.Atoi(fs.Arg(2))
	if err != nil {
		return fmt.Errorf("bad attrOffset: %w", err)
	}

	sourceDir := *heapDir
	if sourceDir == "" {
		sourceDir = dir
	}

	heapFile, err := openOrCreateHeap(sourceDir, relation, *recordSize)
	if err != nil {
		return err
	}

	idx, report, err := bptree.NewWithPoolSize(dir, relation, attrOffset, heapFile, *poolSize)
	if err != nil {
		return err
	}
	defer idx.Close()

	fmt.Printf("built %q: %s keys indexed, root page %d, fresh=%v\n",
		relation, humanize.Comma(int64(report.KeysProcessed)), report.RootPageNo, report.BuiltFresh)
	return nil
}

func openOrCreateHeap(dir, relation string, recordSize int) (*heap.File, error) {
	if heap.Exists(dir, relation) {
		return heap.Open(dir, relation)
	}
	return heap.Create(dir, relation, recordSize)
}

func runScan(args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	poolSize := fs.Int("poolsize", bptree.DefaultBufferPoolSize, "buffer pool frame count")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 7 {
		return fmt.Errorf("scan requires <dir> <relation> <attrOffset> <lowOp> <lowVal> <highOp> <highVal>")
	}

	dir, relation := fs.Arg(0), fs.Arg(1)
	attrOffset, err := strconv.Atoi(fs.Arg(2))
	if err != nil {
		return fmt.Errorf("bad attrOffset: %w", err)
	}
	lowOp, err := parseOperator(fs.Arg(3))
	if err != nil {
		return err
	}
	lowVal, err := parseKey(fs.Arg(4))
	if err != nil {
		return err
	}
	highOp, err := parseOperator(fs.Arg(5))
	if err != nil {
		return err
	}
	highVal, err := parseKey(fs.Arg(6))
	if err != nil {
		return err
	}

	idx, _, err := bptree.NewWithPoolSize(dir, relation, attrOffset, nil, *poolSize)
	if err != nil {
		return err
	}
	defer idx.Close()

	if err := idx.StartScan(lowVal, lowOp, highVal, highOp); err != nil {
		return err
	}
	defer idx.EndScan()

	count := 0
	for {
		rid, err := idx.ScanNext()
		if isScanCompleted(err) {
			break
		}
		if err != nil {
			return err
		}
		fmt.Printf("page=%d slot=%d\n", rid.PageNo, rid.SlotNo)
		count++
	}

	fmt.Printf("%s matching entries\n", humanize.Comma(int64(count)))
	return nil
}

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	dumpPath := fs.String("dump", "", "write a msgpack Stats snapshot to this path")
	poolSize := fs.Int("poolsize", bptree.DefaultBufferPoolSize, "buffer pool frame count")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 3 {
		return fmt.Errorf("inspect requires <dir> <relation> <attrOffset>")
	}

	dir, relation := fs.Arg(0), fs.Arg(1)
	attrOffset, err := strconv.Atoi(fs.Arg(2))
	if err != nil {
		return fmt.Errorf("bad attrOffset: %w", err)
	}

	idx, _, err := bptree.NewWithPoolSize(dir, relation, attrOffset, nil, *poolSize)
	if err != nil {
		return err
	}
	defer idx.Close()

	stats, err := idx.Stats()
	if err != nil {
		return err
	}

	fmt.Printf("root page:       %d\n", stats.RootPageNo)
	fmt.Printf("height:          %d\n", stats.Height)
	fmt.Printf("keys:            %s\n", humanize.Comma(int64(stats.KeyCount)))
	fmt.Printf("leaf pages:      %s\n", humanize.Comma(int64(stats.LeafCount)))
	fmt.Printf("internal pages:  %s\n", humanize.Comma(int64(stats.InternalCount)))

	if *dumpPath == "" {
		return nil
	}

	snapshot, err := util.MarshalSnapshot(stats)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*dumpPath, snapshot, 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s snapshot to %s\n", humanize.Bytes(uint64(len(snapshot))), *dumpPath)
	return nil
}

func parseOperator(s string) (bptree.Operator, error) {
	switch s {
	case "gt":
		return bptree.Gt, nil
	case "gte":
		return bptree.Gte, nil
	case "lt":
		return bptree.Lt, nil
	case "lte":
		return bptree.Lte, nil
	default:
		return 0, fmt.Errorf("unknown operator %q (want gt, gte, lt, lte)", s)
	}
}

func parseKey(s string) (bptree.Key, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("bad key %q: %w", s, err)
	}
	return int32(v), nil
}

func isScanCompleted(err error) bool {
	if err == nil {
		return false
	}
	return err.Error() == bptree.IndexScanCompleted().Error()
}
