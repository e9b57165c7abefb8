package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/kyaoi/mdpane/internal/app"
	"github.com/kyaoi/mdpane/internal/config"
	"github.com/kyaoi/mdpane/internal/highlight"
	"github.com/kyaoi/mdpane/internal/logging"
	"github.com/kyaoi/mdpane/internal/mathrender"
	"github.com/kyaoi/mdpane/internal/preview"
	"github.com/kyaoi/mdpane/internal/widget"
)

const usage = `Usage:
  mdpane render [flags] FILE|-   print the widget HTML for a document
  mdpane view [flags] PATH       browse a file or directory in the terminal
  mdpane serve [flags] DIR       serve live previews over HTTP
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	var err error
	switch args[0] {
	case "render":
		err = runRender(args[1:], stdin, stdout, stderr)
	case "view":
		err = runView(args[1:], stderr)
	case "serve":
		err = runServe(args[1:], stderr)
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n%s", args[0], usage)
		return 2
	}
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	var u usageError
	if errors.As(err, &u) {
		fmt.Fprintln(stderr, u.Error())
		return 2
	}
	if err != nil {
		fmt.Fprintf(stderr, "mdpane: %v\n", err)
		return 1
	}
	return 0
}

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

type common struct {
	configPath string
	logLevel   string
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "YAML config file")
	fs.StringVar(&c.logLevel, "log-level", "", "debug, info, warn or error")
}

func (c *common) load() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	return cfg, nil
}

func deps(cfg config.Config) widget.Deps {
	return widget.Deps{
		Highlighter: highlight.New(cfg.Style),
		Emoji:       cfg.Emoji,
	}
}

func parse(fs *flag.FlagSet, args []string, stderr io.Writer) error {
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return usageError{err.Error()}
	}
	return nil
}

func runRender(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var (
		c           common
		noSanitize  bool
		rtl         bool
		headerLinks bool
		delims      string
		label       string
	)
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	c.register(fs)
	fs.BoolVar(&noSanitize, "no-sanitize", false, "keep raw HTML as written")
	fs.BoolVar(&rtl, "rtl", false, "right-to-left text")
	fs.BoolVar(&headerLinks, "header-links", false, "add anchor links to headings")
	fs.StringVar(&delims, "delims", "", `math delimiters, e.g. "$$,$$,display;$,$,inline"`)
	fs.StringVar(&label, "label", "", "widget label")
	if err := parse(fs, args, stderr); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageError{"render takes exactly one FILE, or - for stdin"}
	}

	cfg, err := c.load()
	if err != nil {
		return err
	}
	undo, err := logging.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer undo()

	name := fs.Arg(0)
	var src []byte
	if name == "-" {
		src, err = io.ReadAll(stdin)
		name = "stdin"
	} else {
		src, err = os.ReadFile(name)
		name = filepath.Base(name)
	}
	if err != nil {
		return errors.Wrap(err, "read input")
	}
	doc, err := config.ParseDocument(src)
	if err != nil {
		return err
	}

	p := cfg.PropsFor(doc, name)
	if noSanitize {
		p.SanitizeHTML = false
	}
	if rtl {
		p.RTL = true
	}
	if headerLinks {
		p.HeaderLinks = true
	}
	if label != "" {
		p.Label = label
	}
	if delims != "" {
		if p.LatexDelimiters, err = mathrender.ParseDelimiters(delims); err != nil {
			return usageError{err.Error()}
		}
	}

	out, err := widget.Render(p, deps(cfg))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, out)
	return err
}

func runView(args []string, stderr io.Writer) error {
	var (
		c   common
		tag string
	)
	fs := flag.NewFlagSet("view", flag.ContinueOnError)
	c.register(fs)
	fs.StringVar(&tag, "tag", "", "only show documents tagged with this value")
	if err := parse(fs, args, stderr); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageError{"view takes exactly one PATH"}
	}

	cfg, err := c.load()
	if err != nil {
		return err
	}
	// The terminal belongs to the viewer, so logs go to a file or nowhere.
	logFile := cfg.LogFile
	if logFile == "" {
		logFile = os.DevNull
	}
	undo, err := logging.Setup(cfg.LogLevel, logFile)
	if err != nil {
		return err
	}
	defer undo()

	return app.Run(filepath.Clean(fs.Arg(0)), app.Options{
		Config: cfg,
		Deps:   deps(cfg),
		Tag:    tag,
	})
}

func runServe(args []string, stderr io.Writer) error {
	var (
		c    common
		addr string
	)
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	c.register(fs)
	fs.StringVar(&addr, "addr", "", "listen address (default from config)")
	if err := parse(fs, args, stderr); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return usageError{"serve takes at most one DIR"}
	}
	dir := "."
	if fs.NArg() == 1 {
		dir = fs.Arg(0)
	}

	cfg, err := c.load()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Addr = addr
	}
	undo, err := logging.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer undo()

	root, loader, err := app.Root(dir)
	if err != nil {
		return err
	}
	d := deps(cfg)
	srv := preview.New(root, loader, preview.Options{
		Config:      cfg,
		Deps:        d,
		Highlighter: d.Highlighter,
	})
	if cfg.Watch {
		if err := srv.Watch(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe(cfg.Addr) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	zap.S().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errc
}
