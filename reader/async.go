package reader

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/terraputix/omfiles-go/backend"
	"github.com/terraputix/omfiles-go/internal/errors"
	"github.com/terraputix/omfiles-go/om"
)

// semaphore is a small channel-based counting semaphore, grounded on
// restic's internal/backend/sema.Semaphore — a plain bound, not
// golang.org/x/sync/semaphore's weighted one, since the async driver
// only ever needs "at most N fetches in flight".
type semaphore chan struct{}

func newSemaphore(n int) semaphore {
	return make(semaphore, n)
}

func (s semaphore) acquire(ctx context.Context) error {
	select {
	case s <- struct{}{}:
		return nil
	case <-ctx.Done():
		return errors.Wrap(errors.KindTaskCancelled, ctx.Err(), "acquiring async fetch token")
	}
}

func (s semaphore) release() { <-s }

// AsyncFile is the async counterpart of File for array reads: it
// drives chunk and LUT fetches through an AsyncReadBackend with bounded
// concurrency, per spec section 5. It does not walk the variable tree
// itself; ReadArrayAsync takes the ArrayVariable to read.
type AsyncFile struct {
	be          backend.AsyncReadBackend
	legacy      bool
	concurrency int
}

// DefaultConcurrency bounds how many fetches an AsyncFile has in
// flight at once when the caller doesn't specify one.
const DefaultConcurrency = 16

// OpenAsync mirrors Open, but over an AsyncReadBackend and without the
// size/version peek requiring a synchronous Size()/GetBytes — async
// backends still expose GetBytesAsync for the header/trailer peek
// itself, run synchronously against context.Background() since no
// chunk has been planned yet to cancel against.
func OpenAsync(be backend.AsyncReadBackend, concurrency int) (*AsyncFile, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	head, err := be.GetBytesAsync(context.Background(), 0, 3)
	if err != nil {
		return nil, err
	}
	version, err := om.PeekVersion(head.Data)
	if err != nil {
		return nil, err
	}
	switch version {
	case om.VersionLegacyV1, om.VersionLegacyV2:
		return &AsyncFile{be: be, legacy: true, concurrency: concurrency}, nil
	case om.VersionV3:
		return &AsyncFile{be: be, legacy: false, concurrency: concurrency}, nil
	default:
		return nil, errors.New(errors.KindNotAnOmFile, "unknown version byte %d", version)
	}
}

// ReadArrayAsync runs the same planner algorithm as Node.ReadArray but
// fetches every index read and every data read concurrently, bounded
// by the AsyncFile's concurrency limit. The first fetch error cancels
// ctx for the rest of the in-flight batch; that error, or the first
// decode error once all fetches are done, is returned to the caller,
// per spec section 5/7.
func (f *AsyncFile) ReadArrayAsync(ctx context.Context, v *om.ArrayVariable, readOffset, readCount, cubeOffset, cubeShape []uint64, limits IOLimits) ([]float64, error) {
	grid, err := om.NewChunkGrid(v.Dimensions, v.ChunkShape)
	if err != nil {
		return nil, err
	}

	output := make([]float64, om.ElementCount(cubeShape))
	for i := range output {
		output[i] = math.NaN()
	}

	chunks, err := PlanChunks(grid, readOffset, readCount)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return output, nil
	}

	total := grid.TotalChunks()
	indexReads, err := PlanIndexReads(v, total, chunks, limits)
	if err != nil {
		return nil, err
	}

	fetched := make([]FetchedIndexRead, len(indexReads))
	if err := f.fetchAll(ctx, len(indexReads), func(ctx context.Context, i int) error {
		ir := indexReads[i]
		b, err := f.be.GetBytesAsync(ctx, ir.Lo, ir.Hi-ir.Lo)
		if err != nil {
			return err
		}
		fetched[i] = FetchedIndexRead{IndexRead: ir, Data: b.Data}
		return nil
	}); err != nil {
		return nil, err
	}

	chunkByteRange, err := ResolveChunkOffsets(v, total, fetched, chunks)
	if err != nil {
		return nil, err
	}

	dataReads := PlanDataReads(chunks, chunkByteRange, limits)
	chunksByIndex := make(map[uint64]ChunkInfo, len(chunks))
	for _, c := range chunks {
		chunksByIndex[c.Index] = c
	}

	// Fetching happens concurrently, but decode/copy runs afterward,
	// sequentially in chunk-index order, per spec section 5: a data
	// read's bytes are just collected here, not decoded inside the
	// fetch callback.
	fetchedData := make([][]byte, len(dataReads))
	if err := f.fetchAll(ctx, len(dataReads), func(ctx context.Context, i int) error {
		dr := dataReads[i]
		b, err := f.be.GetBytesAsync(ctx, dr.Lo, dr.Hi-dr.Lo)
		if err != nil {
			return err
		}
		fetchedData[i] = b.Data
		return nil
	}); err != nil {
		return nil, err
	}

	for _, c := range chunks {
		i, dr, ok := findDataRead(dataReads, c.Index)
		if !ok {
			return nil, errors.New(errors.KindIO, "no data read covers chunk %d", c.Index)
		}
		rng := chunkByteRange[c.Index]
		payload := fetchedData[i][rng[0]-dr.Lo : rng[1]-dr.Lo]
		if err := CopyChunkIntoOutput(v, chunksByIndex[c.Index], payload, readOffset, readCount, cubeOffset, output, cubeShape); err != nil {
			return nil, err
		}
	}

	return output, nil
}

// findDataRead returns the index into dataReads (and the read itself)
// whose Chunks list contains chunkIndex.
func findDataRead(dataReads []DataRead, chunkIndex uint64) (int, DataRead, bool) {
	for i, dr := range dataReads {
		for _, idx := range dr.Chunks {
			if idx == chunkIndex {
				return i, dr, true
			}
		}
	}
	return 0, DataRead{}, false
}

// fetchAll runs work(i) for i in [0,n) concurrently, bounded by the
// AsyncFile's semaphore, and surfaces the first error after cancelling
// the rest of the batch's context.
func (f *AsyncFile) fetchAll(ctx context.Context, n int, work func(context.Context, int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	sem := newSemaphore(f.concurrency)

	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := sem.acquire(gctx); err != nil {
				return err
			}
			defer sem.release()
			return work(gctx, i)
		})
	}
	return g.Wait()
}
