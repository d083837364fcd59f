package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"docstyle/docsync"
	"docstyle/docx"
	"docstyle/state"
	"docstyle/style"
)

// registryPathArg picks the registry file from the command line falling back
// to the configured default.
func registryPathArg(cmd *cli.Command, pos int, env *state.LocalEnv) string {
	if p := cmd.Args().Get(pos); len(p) > 0 {
		return p
	}
	return env.Cfg.Document.RegistryPath
}

func runPull(ctx context.Context, cmd *cli.Command) error {

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("pull")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no source document has been specified")
	}
	regPath := registryPathArg(cmd, 1, env)
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many arguments", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	doc, err := docx.Open(src)
	if err != nil {
		return fmt.Errorf("unable to open document (%s): %w", src, err)
	}
	pulled := docsync.Pull(doc)

	reg := style.NewRegistry()
	if _, err := reg.Restore(regPath); err != nil {
		return fmt.Errorf("unable to load style registry (%s): %w", regPath, err)
	}
	for _, def := range pulled.All() {
		reg.Upsert(def)
	}
	if err := reg.Persist(regPath); err != nil {
		return fmt.Errorf("unable to save style registry (%s): %w", regPath, err)
	}

	log.Info("Styles pulled",
		zap.String("document", src), zap.String("registry", regPath),
		zap.Int("extracted", pulled.Count()), zap.Int("total", reg.Count()))

	if env.Rpt != nil {
		env.Rpt.Store("registry.json", regPath)
	}
	return nil
}

func runList(ctx context.Context, cmd *cli.Command) error {

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("list")

	regPath := registryPathArg(cmd, 0, env)
	if cmd.Args().Len() > 1 {
		log.Warn("Malformed command line, too many arguments", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	reg := style.NewRegistry()
	count, err := reg.Restore(regPath)
	if err != nil {
		return fmt.Errorf("unable to load style registry (%s): %w", regPath, err)
	}
	if count == 0 {
		log.Info("Style registry is empty", zap.String("registry", regPath))
		return nil
	}

	defs := reg.All()
	if cmd.Bool("natural") {
		sort.Slice(defs, func(i, j int) bool { return natural.Less(defs[i].Name, defs[j].Name) })
	}
	for _, d := range defs {
		fmt.Println(formatDefinition(d))
	}
	return nil
}

func formatDefinition(d style.Definition) string {
	parts := []string{fmt.Sprintf("%s %gpt", d.FontName, d.FontSize)}
	if d.Bold {
		parts = append(parts, "bold")
	}
	if d.Italic {
		parts = append(parts, "italic")
	}
	if d.Color != nil {
		parts = append(parts, fmt.Sprintf("color #%02X%02X%02X", d.Color[0], d.Color[1], d.Color[2]))
	}
	parts = append(parts, d.Alignment.String())
	if d.FirstLineIndent != 0 {
		parts = append(parts, fmt.Sprintf("first line %gcm", d.FirstLineIndent))
	}
	if d.LeftIndent != 0 {
		parts = append(parts, fmt.Sprintf("left indent %gcm", d.LeftIndent))
	}
	if d.SpaceAfter != 0 {
		parts = append(parts, fmt.Sprintf("space after %gpt", d.SpaceAfter))
	}
	return fmt.Sprintf("%s: %s", d.Name, strings.Join(parts, ", "))
}

func runSet(ctx context.Context, cmd *cli.Command) error {

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("set")

	name := cmd.Args().Get(0)
	if len(name) == 0 {
		return errors.New("no style name has been specified")
	}
	regPath := registryPathArg(cmd, 1, env)
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many arguments", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	reg := style.NewRegistry()
	if _, err := reg.Restore(regPath); err != nil {
		return fmt.Errorf("unable to load style registry (%s): %w", regPath, err)
	}

	def, err := reg.Lookup(name)
	if err != nil {
		return fmt.Errorf("registry %s: %w", regPath, err)
	}

	changed := false
	if cmd.IsSet("size") {
		def.FontSize = cmd.Float("size")
		changed = true
	}
	if c := cmd.String("color"); len(c) > 0 {
		rgb, err := parseRGB(c)
		if err != nil {
			return err
		}
		def.Color = rgb
		changed = true
	}
	if !changed {
		return errors.New("nothing to change, use --size and/or --color")
	}

	reg.Upsert(def)
	if err := reg.Persist(regPath); err != nil {
		return fmt.Errorf("unable to save style registry (%s): %w", regPath, err)
	}

	log.Info("Style updated", zap.String("style", name), zap.String("registry", regPath), zap.String("now", formatDefinition(def)))
	return nil
}

func parseRGB(in string) (*style.RGB, error) {
	fields := strings.Fields(strings.ReplaceAll(in, ",", " "))
	if len(fields) != 3 {
		return nil, fmt.Errorf("color must have three components \"R G B\", got %q", in)
	}
	var rgb style.RGB
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("bad color component %q: %w", f, err)
		}
		rgb[i] = uint8(v)
	}
	return &rgb, nil
}
