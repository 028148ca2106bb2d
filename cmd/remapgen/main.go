// Command remapgen generates the compiled accessor and instantiator
// fast path for mapped entities.
//
// Usage:
//
//	remapgen [flags] <schema-dir>
//	remapgen --config remap.yaml
//	remapgen --watch ./model
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"

	"github.com/syssam/remap/compiler/gen"
)

func main() {
	var (
		configPath string
		pkg        string
		target     string
		header     string
		cache      string
		workers    int
		watch      bool
	)
	pflag.StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	pflag.StringVarP(&pkg, "package", "p", "", "package name of the generated files")
	pflag.StringVarP(&target, "target", "t", "", "output directory (defaults to the schema directory)")
	pflag.StringVar(&header, "header", "", "extra header comment for generated files")
	pflag.StringVar(&cache, "cache", "", "load snapshot path")
	pflag.IntVar(&workers, "workers", 0, "parallel file generation limit")
	pflag.BoolVarP(&watch, "watch", "w", false, "regenerate on schema changes")
	pflag.Parse()

	cfg, err := buildConfig(configPath, pkg, target, header, cache, workers)
	if err != nil {
		fail(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := gen.Generate(ctx, cfg); err != nil {
		fail(err)
	}
	if !watch {
		return
	}
	if err := watchAndRegenerate(ctx, cfg); err != nil {
		fail(err)
	}
}

func buildConfig(configPath, pkg, target, header, cache string, workers int) (*gen.Config, error) {
	if configPath != "" {
		return gen.LoadConfig(configPath)
	}
	schema := pflag.Arg(0)
	if schema == "" {
		return nil, fmt.Errorf("remapgen: schema directory argument or --config is required")
	}
	opts := []gen.Option{}
	if pkg != "" {
		opts = append(opts, gen.WithPackage(pkg))
	}
	if target != "" {
		opts = append(opts, gen.WithTarget(target))
	}
	if header != "" {
		opts = append(opts, gen.WithHeader(header))
	}
	if cache != "" {
		opts = append(opts, gen.WithCache(cache))
	}
	if workers > 0 {
		opts = append(opts, gen.WithWorkers(workers))
	}
	return gen.NewConfig(schema, opts...)
}

// watchAndRegenerate reruns generation whenever a Go source file in
// the schema directory changes. Events are debounced; generated files
// and test files do not retrigger.
func watchAndRegenerate(ctx context.Context, cfg *gen.Config) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(cfg.Schema); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "remapgen: watching %s\n", cfg.Schema)

	var timer *time.Timer
	regen := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-watcher.Errors:
			fmt.Fprintf(os.Stderr, "remapgen: watch error: %v\n", err)
		case ev := <-watcher.Events:
			if !relevant(ev) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(250*time.Millisecond, func() {
				select {
				case regen <- struct{}{}:
				default:
				}
			})
		case <-regen:
			if err := gen.Generate(ctx, cfg); err != nil {
				fmt.Fprintf(os.Stderr, "remapgen: %v\n", err)
				continue
			}
			fmt.Fprintln(os.Stderr, "remapgen: regenerated")
		}
	}
}

// relevant filters watch events down to handwritten Go source edits.
func relevant(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
		return false
	}
	name := ev.Name
	if !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
		return false
	}
	return !strings.HasSuffix(name, "_remap.go")
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "remapgen: %v\n", err)
	os.Exit(1)
}
