// Command packprof profiles pack workloads: decoding the index, reading
// files, inserting folders, extracting and saving.
//
// It builds a synthetic pack from generated files unless --pack names an
// existing one, then runs the selected mode for a duration or a number of
// iterations, optionally writing CPU, heap and trace profiles.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"math/rand" //nolint:gosec // intentional use for reproducible benchmarks
	"net/http"
	_ "net/http/pprof" //nolint:gosec // intentional profiling endpoint
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"slices"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/Frodo45127/rpfm-sub014/compression"
	"github.com/Frodo45127/rpfm-sub014/games"
	"github.com/Frodo45127/rpfm-sub014/pack"
)

type config struct {
	mode        string
	packPath    string
	game        string
	version     string
	files       int
	fileSize    int
	dirCount    int
	compression string
	pattern     string
	encrypt     bool
	duration    time.Duration
	iterations  int
	workers     int
	pprofAddr   string
	cpuProfile  string
	memProfile  string
	traceFile   string
	readRandom  bool
	tempDir     string
	keepTemp    bool
	randomSeed  int64
	verbose     bool
}

//nolint:unused // sink variables prevent compiler optimizations in profiling
var (
	sinkBytes []byte
	sinkCount int
)

func main() {
	cfg := parseFlags()

	if cfg.pprofAddr != "" {
		go func() {
			log.Printf("pprof listening on %s", cfg.pprofAddr)
			//nolint:gosec // intentional pprof server without timeouts for profiling
			if err := http.ListenAndServe(cfg.pprofAddr, nil); err != nil {
				log.Printf("pprof server error: %v", err)
			}
		}()
	}

	dir, cleanup, err := setupTempDir(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if cleanup != nil {
		defer cleanup() //nolint:errcheck // cleanup errors are non-fatal in profiler
	}

	opts, err := packOptions(cfg)
	if err != nil {
		log.Fatal(err) //nolint:gocritic // exitAfterDefer is intentional - cleanup is best-effort
	}

	packPath := cfg.packPath
	if packPath == "" {
		if _, err := makeFiles(filepath.Join(dir, "src"), cfg.files, cfg.fileSize, cfg.dirCount, cfg.pattern, cfg.randomSeed); err != nil {
			log.Fatal(err)
		}
		packPath = filepath.Join(dir, "profile.pack")
		if err := buildPack(cfg, filepath.Join(dir, "src"), packPath, opts); err != nil {
			log.Fatal(err)
		}
	}

	if cfg.cpuProfile != "" {
		cpuFile, cpuErr := os.Create(cfg.cpuProfile)
		if cpuErr != nil {
			log.Fatal(cpuErr)
		}
		if cpuErr = pprof.StartCPUProfile(cpuFile); cpuErr != nil {
			log.Fatal(cpuErr)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = cpuFile.Close()
		}()
	}

	if cfg.traceFile != "" {
		traceFile, traceErr := os.Create(cfg.traceFile)
		if traceErr != nil {
			log.Fatal(traceErr)
		}
		if traceErr = trace.Start(traceFile); traceErr != nil {
			log.Fatal(traceErr)
		}
		defer func() {
			trace.Stop()
			_ = traceFile.Close()
		}()
	}

	stats, err := runProfile(cfg, packPath, dir, opts)
	if err != nil {
		log.Fatal(err)
	}

	if cfg.memProfile != "" {
		runtime.GC()
		f, err := os.Create(cfg.memProfile)
		if err != nil {
			log.Fatal(err)
		}
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatal(err)
		}
		_ = f.Close()
	}

	fmt.Printf("mode=%s ops=%d bytes=%d elapsed=%s throughput=%.2f MB/s\n",
		cfg.mode,
		stats.ops,
		stats.bytes,
		stats.elapsed,
		float64(stats.bytes)/(1024*1024)/stats.elapsed.Seconds(),
	)
}

type profileStats struct {
	ops     int
	bytes   int64
	elapsed time.Duration
}

//nolint:gocognit,gocyclo,gocritic // complexity is inherent to multi-mode profiler dispatch; hugeParam acceptable for profiler
func runProfile(cfg config, packPath, rootDir string, opts []pack.Option) (profileStats, error) {
	start := time.Now()
	ops := 0
	var byteCount int64

	shouldContinue := func() bool {
		if cfg.iterations > 0 {
			return ops < cfg.iterations
		}
		return time.Since(start) < cfg.duration
	}

	switch cfg.mode {
	case "open":
		info, err := os.Stat(packPath)
		if err != nil {
			return profileStats{}, err
		}
		for shouldContinue() {
			p, err := pack.Open(packPath, opts...)
			if err != nil {
				return profileStats{}, err
			}
			sinkCount = p.Len()
			_ = p.Close()
			byteCount += info.Size()
			ops++
		}

	case "readfile":
		p, err := pack.Open(packPath, opts...)
		if err != nil {
			return profileStats{}, err
		}
		defer p.Close()

		var paths []string
		for fi := range p.Files() {
			paths = append(paths, fi.Path)
		}
		if len(paths) == 0 {
			return profileStats{}, fmt.Errorf("%s holds no files", packPath)
		}
		rng := rand.New(rand.NewSource(cfg.randomSeed)) //nolint:gosec // intentional for reproducible benchmarks
		for shouldContinue() {
			content, err := p.ReadFile(pickPath(paths, ops, rng, cfg.readRandom))
			if err != nil {
				return profileStats{}, err
			}
			sinkBytes = content
			byteCount += int64(len(content))
			ops++
		}

	case "load":
		for shouldContinue() {
			p, err := pack.Open(packPath, opts...)
			if err != nil {
				return profileStats{}, err
			}
			if err := p.Load(); err != nil {
				_ = p.Close()
				return profileStats{}, err
			}
			for fi := range p.Files() {
				byteCount += int64(fi.Size) //nolint:gosec // payload sizes fit int64
			}
			_ = p.Close()
			ops++
		}

	case "extract":
		p, err := pack.Open(packPath, opts...)
		if err != nil {
			return profileStats{}, err
		}
		defer p.Close()
		for shouldContinue() {
			destDir := filepath.Join(rootDir, "extract", fmt.Sprintf("iter-%d", ops))
			written, err := p.Extract(pack.FolderPath(""), destDir, true, true)
			if err != nil {
				return profileStats{}, err
			}
			sinkCount = len(written)
			for fi := range p.Files() {
				byteCount += int64(fi.Size) //nolint:gosec // payload sizes fit int64
			}
			if err := os.RemoveAll(destDir); err != nil {
				return profileStats{}, err
			}
			ops++
		}

	case "save":
		p, err := pack.Open(packPath, opts...)
		if err != nil {
			return profileStats{}, err
		}
		defer p.Close()
		if err := p.Load(); err != nil {
			return profileStats{}, err
		}
		out := filepath.Join(rootDir, "save.pack")
		for shouldContinue() {
			if err := p.SaveContext(context.Background(), out); err != nil {
				return profileStats{}, err
			}
			info, err := os.Stat(out)
			if err != nil {
				return profileStats{}, err
			}
			byteCount += info.Size()
			ops++
		}

	case "insert-folder":
		src := filepath.Join(rootDir, "src")
		if _, err := os.Stat(src); err != nil {
			return profileStats{}, fmt.Errorf("insert-folder needs the generated dataset: %w", err)
		}
		for shouldContinue() {
			p := pack.New(opts...)
			added, err := p.InsertFolder(src, "")
			if err != nil {
				return profileStats{}, err
			}
			sinkCount = len(added)
			data, err := p.Encode()
			if err != nil {
				return profileStats{}, err
			}
			byteCount += int64(len(data))
			ops++
		}

	default:
		return profileStats{}, fmt.Errorf("unknown mode: %s", cfg.mode)
	}

	return profileStats{
		ops:     ops,
		bytes:   byteCount,
		elapsed: time.Since(start),
	}, nil
}

func parseFlags() config {
	var cfg config
	flag.StringVar(&cfg.mode, "mode", "readfile", "mode: open, readfile, load, extract, save, insert-folder")
	flag.StringVar(&cfg.packPath, "pack", "", "profile an existing pack instead of a generated one")
	flag.StringVar(&cfg.game, "game", "warhammer_3", "game key from the catalog")
	flag.StringVar(&cfg.version, "pack-version", "", "container version of the generated pack (default: the game's)")
	flag.IntVar(&cfg.files, "files", 512, "number of files")
	flag.IntVar(&cfg.fileSize, "file-size", 16<<10, "file size in bytes")
	flag.IntVar(&cfg.dirCount, "dir-count", 16, "number of directories")
	flag.StringVar(&cfg.compression, "compression", "", "compression: none, lzma1, lz4 or zstd (default: the game's)")
	flag.StringVar(&cfg.pattern, "pattern", "compressible", "pattern: compressible or random")
	flag.BoolVar(&cfg.encrypt, "encrypt", false, "encrypt the generated pack's index and data")
	flag.DurationVar(&cfg.duration, "duration", 10*time.Second, "duration to run (ignored if iterations > 0)")
	flag.IntVar(&cfg.iterations, "iterations", 0, "number of iterations to run")
	flag.IntVar(&cfg.workers, "workers", 0, "save workers: 0 auto, >0 fixed")
	flag.StringVar(&cfg.pprofAddr, "pprof-addr", "", "pprof listen address (e.g. :6060)")
	flag.StringVar(&cfg.cpuProfile, "cpuprofile", "", "write CPU profile to file")
	flag.StringVar(&cfg.memProfile, "memprofile", "", "write heap profile to file")
	flag.StringVar(&cfg.traceFile, "trace", "", "write trace to file")
	flag.BoolVar(&cfg.readRandom, "read-random", true, "randomize readfile path selection")
	flag.StringVar(&cfg.tempDir, "temp-dir", "", "directory to use for dataset")
	flag.BoolVar(&cfg.keepTemp, "keep-temp", false, "keep temp dir after run")
	flag.Int64Var(&cfg.randomSeed, "seed", 1, "random seed")
	flag.BoolVarP(&cfg.verbose, "verbose", "v", false, "log pack operations to stderr")
	flag.Parse()
	return cfg
}

//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func packOptions(cfg config) ([]pack.Option, error) {
	g, err := games.Default().Get(cfg.game)
	if err != nil {
		return nil, err
	}
	opts := []pack.Option{pack.WithGame(g), pack.WithDeterministic(true)}
	if cfg.workers > 0 {
		opts = append(opts, pack.WithWorkers(cfg.workers))
	}
	if cfg.compression != "" {
		s, err := compression.ParseScheme(cfg.compression)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pack.WithCompression(s))
	}
	if cfg.verbose {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		opts = append(opts, pack.WithLogger(logger))
	}
	return opts, nil
}

//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func buildPack(cfg config, srcDir, out string, opts []pack.Option) error {
	p := pack.New(opts...)
	h := p.Header()
	if cfg.version != "" {
		v, err := pack.ParseVersion(cfg.version)
		if err != nil {
			return err
		}
		h.Version = v
	}
	if cfg.encrypt {
		h.Flags |= pack.FlagEncryptedIndex | pack.FlagEncryptedData
	}
	if err := p.SetHeader(h); err != nil {
		return err
	}
	if _, err := p.InsertFolder(srcDir, ""); err != nil {
		return err
	}
	return p.Save(out)
}

func pickPath(paths []string, idx int, rng *rand.Rand, random bool) string {
	if random {
		return paths[rng.Intn(len(paths))]
	}
	return paths[idx%len(paths)]
}

//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func setupTempDir(cfg config) (string, func() error, error) {
	if cfg.tempDir != "" {
		return cfg.tempDir, nil, os.MkdirAll(cfg.tempDir, 0o755) //nolint:gosec // 0o755 is intentional for profiler temp dirs
	}
	dir, err := os.MkdirTemp("", "packprof-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() error {
		if cfg.keepTemp {
			return nil
		}
		return os.RemoveAll(dir)
	}
	return dir, cleanup, nil
}

// makeFiles writes a dataset shaped like a mod: tables under db/, text
// under text/ and scripts, spread over dirCount directories.
func makeFiles(dir string, fileCount, fileSize, dirCount int, pattern string, seed int64) ([]string, error) {
	if dirCount <= 0 {
		dirCount = 1
	}
	exts := []string{".loc", ".lua", ".xml", ""}
	paths := make([]string, 0, fileCount)
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // intentional use for reproducible benchmarks
	for i := range fileCount {
		var relPath string
		if ext := exts[i%len(exts)]; ext == "" {
			relPath = fmt.Sprintf("db/dir%02d_tables/data__%05d", i%dirCount, i)
		} else {
			relPath = fmt.Sprintf("text/dir%02d/file%05d%s", i%dirCount, i, ext)
		}
		fullPath := filepath.Join(dir, filepath.FromSlash(relPath))
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil { //nolint:gosec // 0o755 is intentional for profiler
			return nil, err
		}

		content := make([]byte, fileSize)
		switch pattern {
		case "random":
			if _, err := rng.Read(content); err != nil {
				return nil, err
			}
		default:
			fillByte := byte('a' + (i % 26))
			for j := range content {
				content[j] = fillByte
			}
			if len(content) > 0 {
				content[0] = byte(i)
			}
		}

		if err := os.WriteFile(fullPath, content, 0o644); err != nil { //nolint:gosec // 0o644 is intentional for profiler test files
			return nil, err
		}
		paths = append(paths, relPath)
	}
	slices.Sort(paths)
	return paths, nil
}
