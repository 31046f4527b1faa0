package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/cheggaaa/pb/v3/termutil"
	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zstd"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/sourcegraph/conc"
	"github.com/urfave/cli/v3"

	"github.com/oraluben/libosmium/area"
	"github.com/oraluben/libosmium/internal/logging"
	"github.com/oraluben/libosmium/tagmatch"
)

func extract(ctx *cli.Context) error {
	log := logging.Setup(ctx.Bool("verbose"))

	threads := ctx.Int("threads")
	if threads == 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	log = log.With("threads", threads)

	if listen := ctx.String("pprof.listen"); listen != "" {
		log.Info("starting pprof server", "listen", listen)
		servePprof(listen)
	}

	file, err := os.Open(ctx.String("input"))
	if err != nil {
		return err
	}
	defer file.Close()
	stat, err := file.Stat()
	if err != nil {
		return err
	}

	out, err := os.Create(ctx.String("output"))
	if err != nil {
		return err
	}
	defer out.Close()
	zw, err := zstd.NewWriter(out)
	if err != nil {
		return err
	}

	// The writer runs on its own goroutine, consuming full output buffers
	// from the manager. The bounded channel gives backpressure when
	// compression falls behind.
	buffers := make(chan []byte, 4)
	var writerErr error
	var wg conc.WaitGroup
	wg.Go(func() {
		for data := range buffers {
			if _, err := zw.Write(data); err != nil && writerErr == nil {
				writerErr = err
			}
		}
	})

	m := area.NewManager(area.Config{
		Filter:         buildFilter(ctx.StringSlice("filter")),
		Logger:         log,
		OutputCallback: func(data []byte) { buffers <- data },
	})
	defer m.Close()

	if err := runPasses(context.Background(), m, file, stat.Size(), threads); err != nil {
		close(buffers)
		wg.Wait()
		return err
	}

	close(buffers)
	wg.Wait()
	if writerErr != nil {
		return fmt.Errorf("writing output: %w", writerErr)
	}
	if err := zw.Close(); err != nil {
		return err
	}

	report(log, m)
	return nil
}

func runPasses(ctx context.Context, m *area.Manager, file *os.File, size int64, threads int) error {
	scanner := osmpbf.New(ctx, file, threads)
	scanner.SkipNodes = true
	scanner.SkipWays = true

	pass1 := m.FirstPassHandler()
	err := scanWithProgress(scanner, size, "1/2 collecting relations", func(o osm.Object) error {
		return pass1.Object(o)
	})
	scanner.Close()
	if err != nil {
		return err
	}

	m.Prepare()

	if _, err := file.Seek(0, 0); err != nil {
		return err
	}
	scanner = osmpbf.New(ctx, file, threads)
	defer scanner.Close()
	scanner.SkipNodes = true
	scanner.SkipRelations = true

	pass2 := m.SecondPassHandler()
	err = scanWithProgress(scanner, size, "2/2 resolving ways", func(o osm.Object) error {
		return pass2.Object(o)
	})
	if err != nil {
		return err
	}
	return pass2.Flush()
}

func scanWithProgress(scanner *osmpbf.Scanner, size int64, name string, it func(osm.Object) error) error {
	bar := pb.Start64(size)
	bar.Set("prefix", name)
	bar.Set(pb.Bytes, true)
	bar.SetRefreshRate(time.Second * 5)
	if w, err := termutil.TerminalWidth(); w == 0 || err != nil {
		bar.SetTemplateString(`{{with string . "prefix"}}{{.}} {{end}}{{counters . }} {{bar . }} {{percent . }} {{speed . }} {{rtime . "ETA %s"}}{{with string . "suffix"}} {{.}}{{end}}` + "\n")
	}

	for scanner.Scan() {
		bar.SetCurrent(scanner.FullyScannedBytes())
		if err := it(scanner.Object()); err != nil {
			bar.Finish()
			return err
		}
	}
	bar.Finish()

	return scanner.Err()
}

func buildFilter(specs []string) *tagmatch.TagsFilter {
	if len(specs) == 0 {
		return tagmatch.NewTagsFilter(true)
	}

	filter := tagmatch.NewTagsFilter(false)
	for _, spec := range specs {
		key, value, found := strings.Cut(spec, "=")
		if !found || value == "*" {
			filter.Add(true, tagmatch.MatchKey(tagmatch.Equal(key)))
		} else {
			filter.Add(true, tagmatch.MatchKeyValue(tagmatch.Equal(key), tagmatch.Equal(value), false))
		}
	}
	return filter
}

func report(log *slog.Logger, m *area.Manager) {
	st := m.Stats()
	log.Info("extraction finished",
		"areas_from_ways", st.FromWays,
		"areas_from_relations", st.FromRelations,
		"outer_rings", st.OuterRings,
		"inner_rings", st.InnerRings,
		"multipolygons", st.Multipolygons,
		"invalid_locations", st.InvalidLocations,
		"dangling_segments", st.DanglingSegments,
		"no_valid_outer_rings", st.NoValidOuterRings,
		"wrong_roles", st.WrongRoles,
		"incomplete_relations", st.IncompleteRelations,
	)

	if incomplete := m.Incomplete(); len(incomplete) > 0 {
		log.Warn("relations with missing way members", "count", len(incomplete))
	}

	mem := m.UsedMemory()
	log.Debug("manager memory",
		"relations", humanize.Bytes(uint64(mem.Relations)),
		"members", humanize.Bytes(uint64(mem.Members)),
		"stash", humanize.Bytes(uint64(mem.Stash)),
	)
}
