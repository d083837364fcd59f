// Package restyle drives push and apply passes over single documents,
// directory trees and zip archives of documents.
package restyle

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"docstyle/archive"
	"docstyle/config"
	"docstyle/docsync"
	"docstyle/docx"
	"docstyle/rules"
	"docstyle/state"
	"docstyle/style"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named(cmd.Name)

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no target has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	registryPath := cmd.Args().Get(1)
	if len(registryPath) == 0 {
		registryPath = env.Cfg.Document.RegistryPath
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many arguments", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	reg := style.NewRegistry()
	count, err := reg.Restore(registryPath)
	if err != nil {
		return fmt.Errorf("unable to load style registry (%s): %w", registryPath, err)
	}
	log.Debug("Style registry loaded", zap.String("registry", registryPath), zap.Int("styles", count))

	ruleList, err := buildRules(cmd, env, reg)
	if err != nil {
		return err
	}

	dst := cmd.String("out")
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}

	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	cp := cmd.String("force-zip-cp")
	if len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully converting all non UTF-8 file names in archives", zap.String("charset", n))
		}
	}

	log.Info("Processing starting", zap.String("target", src), zap.Int("rules", len(ruleList)))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, reg, ruleList, log)
}

// buildRules assembles the classification chain from command line flags.
// Every rule target must resolve in the loaded registry before any
// document is touched.
func buildRules(cmd *cli.Command, env *state.LocalEnv, reg *style.Registry) ([]rules.Rule, error) {

	var list []rules.Rule

	if kw := cmd.String("keyword"); len(kw) > 0 {
		ks := cmd.String("keyword-style")
		if len(ks) == 0 {
			return nil, errors.New("--keyword requires --keyword-style")
		}
		list = append(list, rules.Keyword(ks, kw))
	}

	if h := cmd.String("heading"); len(h) > 0 {
		b := cmd.String("body")
		if len(b) == 0 {
			return nil, errors.New("two-tier restyling requires both --heading and --body")
		}
		maxChars := int(cmd.Int("max-chars"))
		if maxChars <= 0 {
			maxChars = env.Cfg.Document.HeadingMaxChars
		}
		list = append(list, rules.Length(h, maxChars), rules.Universal(b))
	} else if s := cmd.String("style"); len(s) > 0 {
		list = append(list, rules.Universal(s))
	}

	if cmd.Name == "apply" && len(list) == 0 {
		return nil, errors.New("no restyling rules specified, use --style or --heading/--body")
	}

	for _, r := range list {
		if !reg.Contains(r.Target()) {
			return nil, fmt.Errorf("rule target %q: %w", r.Target(), style.ErrStyleNotFound)
		}
	}
	return list, nil
}

// process determines the target type (directory, archive, or single
// document) and processes accordingly. Documents and directories are
// reworked in place, archive entries are extracted under dst first.
func process(ctx context.Context, src, dst string, reg *style.Registry, ruleList []rules.Rule, log *zap.Logger) error {

	fi, err := os.Stat(src)
	if os.IsNotExist(err) {
		// push is allowed to create a fresh document
		if strings.EqualFold(filepath.Ext(src), ".docx") && len(ruleList) == 0 {
			return processDocument(ctx, src, reg, ruleList, log)
		}
		return fmt.Errorf("target was not found (%s)", src)
	}
	if err != nil {
		return err
	}

	if fi.Mode().IsDir() {
		return processDir(ctx, src, reg, ruleList, log)
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("unexpected target mode (%s)", src)
	}

	kind, err := detectKind(src)
	if err != nil {
		return fmt.Errorf("unable to check target type: %w", err)
	}
	switch kind {
	case kindDocument:
		return processDocument(ctx, src, reg, ruleList, log)
	case kindArchive:
		return processArchive(ctx, src, dst, reg, ruleList, log)
	}
	return fmt.Errorf("target was not recognized as document or archive (%s)", src)
}

// processDir walks directory tree finding documents and processes them in
// place. Per-document failures are logged and do not stop the walk.
func processDir(ctx context.Context, dir string, reg *style.Registry, ruleList []rules.Rule, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("dir", dir))
		}
	}()

	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".docx") {
			log.Debug("Skipping file, not recognized as document", zap.String("file", path))
			return nil
		}

		count++

		if err := processDocument(ctx, path, reg, ruleList, log); err != nil {
			log.Error("Unable to process document", zap.String("file", path), zap.Error(err))
		}
		return nil
	})
	return err
}

// processArchive extracts documents from zip archive under dst and
// processes the extracted copies.
func processArchive(ctx context.Context, path, dst string, reg *style.Registry, ruleList []rules.Rule, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("archive", path))
		}
	}()

	env := state.EnvFromContext(ctx)

	err = archive.Walk(path, ".docx", func(arc string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := f.FileHeader.Name
		if env.CodePage != nil && f.FileHeader.NonUTF8 {
			// forcing zip file name encoding
			if n, err := env.CodePage.NewDecoder().String(name); err == nil {
				name = n
			} else {
				n, _ = ianaindex.IANA.Name(env.CodePage)
				log.Warn("Unable to convert archive name from specified encoding",
					zap.String("charset", n), zap.String("path", name), zap.Error(err))
			}
		}

		count++

		outName := outputPath(filepath.FromSlash(name), dst, env)
		if err := extractEntry(f, outName, env.Overwrite); err != nil {
			log.Error("Unable to extract document from archive",
				zap.String("archive", arc), zap.String("file", f.FileHeader.Name), zap.Error(err))
			return nil
		}

		if err := processDocument(ctx, outName, reg, ruleList, log); err != nil {
			log.Error("Unable to process document from archive",
				zap.String("archive", arc), zap.String("file", f.FileHeader.Name), zap.Error(err))
		}
		return nil
	})
	return err
}

// processDocument runs a single document through the registry push and
// optional rule pass, saving the result in place.
func processDocument(ctx context.Context, path string, reg *style.Registry, ruleList []rules.Rule, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	log.Info("Document processing starting", zap.String("document", path))
	defer func(start time.Time) {
		log.Info("Document processing completed", zap.Duration("elapsed", time.Since(start)), zap.String("document", path))
	}(time.Now())

	if env.Rpt != nil {
		// snapshot source before rewrite, new documents have nothing to snapshot
		if _, err := os.Stat(path); err == nil {
			if err := env.Rpt.StoreCopy("before/"+filepath.Base(path), path); err != nil {
				log.Warn("Unable to snapshot document for report", zap.String("document", path), zap.Error(err))
			}
		}
	}

	factory := docx.Factory{FixZip: env.Cfg.Document.FixZip}
	if err := docsync.SyncFile(factory, path, reg, ruleList, log); err != nil {
		return err
	}

	if env.Rpt != nil {
		env.Rpt.Store("after/"+filepath.Base(path), path)
	}
	return nil
}

// outputPath maps a path inside an archive to the extraction destination,
// optionally flattening the directory structure.
func outputPath(src, dst string, env *state.LocalEnv) string {
	dir := dst
	if !env.NoDirs {
		if sub := filepath.Dir(src); sub != "." {
			dir = filepath.Join(dst, sub)
		}
	}
	return filepath.Join(dir, config.CleanFileName(filepath.Base(src)))
}

func extractEntry(f *zip.File, outName string, overwrite bool) error {
	if _, err := os.Stat(outName); err == nil {
		if !overwrite {
			return fmt.Errorf("output file already exists: %s", outName)
		}
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	r, err := f.Open()
	if err != nil {
		return err
	}
	defer r.Close()

	out, err := os.Create(outName)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
