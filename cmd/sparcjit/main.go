// Command sparcjit inspects the sparc64 back end: its register universe, how it materializes constants, and the
// code it generates for a few bundled guest blocks.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xlab/treeprint"

	"github.com/sparcjit/sparcjit"
	"github.com/sparcjit/sparcjit/internal/engine/backend/isa/sparc64"
	"github.com/sparcjit/sparcjit/internal/engine/backend/regalloc"
	"github.com/sparcjit/sparcjit/internal/engine/jitapi"
	"github.com/sparcjit/sparcjit/internal/log"
	"github.com/sparcjit/sparcjit/internal/sample"
	"github.com/sparcjit/sparcjit/internal/version"
)

// demoStubs are placeholder dispatcher addresses for translations which are only printed.
var demoStubs = sparcjit.Stubs{
	ChainMeToSlowEP: 0x10000,
	ChainMeToFastEP: 0x10400,
	XIndir:          0x10800,
	XAssisted:       0x10c00,
	LoadGuestRegs:   0x11000,
	StoreGuestRegs:  0x11400,
}

func main() {
	os.Exit(doMain(os.Args[1:], os.Stdout, os.Stderr))
}

// doMain is separated out for the purpose of unit testing.
func doMain(args []string, stdOut, stdErr io.Writer) int {
	rootCmd := newRootCmd(stdOut, stdErr)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdOut)
	rootCmd.SetErr(stdErr)
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd(stdOut, stdErr io.Writer) *cobra.Command {
	var logLevel, logModules string

	rootCmd := &cobra.Command{
		Use:           "sparcjit",
		Short:         "Inspect the sparc64 JIT back end",
		Version:       version.GetVersion(),
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := log.InitLogger(stdErr, logLevel); err != nil {
				return err
			}
			for _, m := range strings.Split(logModules, ",") {
				if m = strings.TrimSpace(m); m != "" {
					log.EnableModule(m)
				}
			}
			return nil
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: trace, debug, info, warn, error or crit")
	rootCmd.PersistentFlags().StringVar(&logModules, "log-modules", "",
		"comma separated modules to trace: "+strings.Join(log.KnownModules, ", "))

	rootCmd.AddCommand(newUniverseCmd(stdOut), newImmCmd(stdOut), newSampleCmd(stdOut))
	return rootCmd
}

func newUniverseCmd(stdOut io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "universe",
		Short: "Print the host registers and which of them the allocator may use",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(stdOut, universeTree().String())
		},
	}
}

func universeTree() treeprint.Tree {
	u := sparc64.GetUniverse()
	tree := treeprint.NewWithRoot(fmt.Sprintf("sparc64 (%d registers)", u.Len()))

	allocatable := tree.AddBranch(fmt.Sprintf("allocatable (%d)", u.Allocatable()))
	info := u.RegisterInfo()
	for typ := regalloc.RegTypeInt; typ < regalloc.NumRegType; typ++ {
		regs := info.AllocatableRegisters[typ]
		allocatable.AddMetaNode(typ.String(), regNames(regs))
	}

	reserved := u.Regs()[u.Allocatable():]
	tree.AddBranch(fmt.Sprintf("reserved (%d)", len(reserved))).AddNode(regNames(reserved))
	return tree
}

func regNames(regs []regalloc.RealReg) string {
	names := make([]string, len(regs))
	for k, r := range regs {
		names[k] = sparc64.RegName(r)
	}
	return strings.Join(names, " ")
}

func newImmCmd(stdOut io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "imm <value>",
		Short: "Show how a 64-bit constant is materialized",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseImm(args[0])
			if err != nil {
				return err
			}
			for _, w := range sparc64.LoadImmSequence(v) {
				fmt.Fprintf(stdOut, "%08x  %s\n", w.Word, w.Asm)
			}
			return nil
		},
	}
}

// parseImm accepts any Go integer literal, negative values being taken as their two's complement.
func parseImm(s string) (uint64, error) {
	if v, err := strconv.ParseUint(s, 0, 64); err == nil {
		return v, nil
	}
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid immediate %q", s)
	}
	return uint64(v), nil
}

func newSampleCmd(stdOut io.Writer) *cobra.Command {
	var (
		configPath string
		hwcaps     []string
		noChaining bool
		showIR     bool
	)
	cmd := &cobra.Command{
		Use:   "sample [name]",
		Short: "Translate a bundled guest block and dump the code, or list the blocks",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, name := range sample.Names() {
					fmt.Fprintln(stdOut, name)
				}
				return nil
			}
			sb, ok := sample.Get(args[0])
			if !ok {
				return fmt.Errorf("unknown sample %q, want one of %s", args[0], strings.Join(sample.Names(), ", "))
			}

			config, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("hwcaps") {
				caps, err := jitapi.ParseHwcaps(hwcaps)
				if err != nil {
					return err
				}
				config = config.WithHwcaps(caps)
			}
			if noChaining {
				config = config.WithChaining(false)
			}
			t, err := sparcjit.NewTranslator(config)
			if err != nil {
				return err
			}

			if showIR {
				fmt.Fprint(stdOut, sb.Tree().String())
			}
			b, err := t.Translate(context.Background(), sb)
			if err != nil {
				return err
			}
			dumpBlock(stdOut, b)
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "YAML translator configuration")
	cmd.Flags().StringSliceVar(&hwcaps, "hwcaps", nil, "host capabilities: vis2, vis3, sparc5")
	cmd.Flags().BoolVar(&noChaining, "no-chaining", false, "leave every block through the assisted exit")
	cmd.Flags().BoolVar(&showIR, "ir", false, "print the IR of the block first")
	return cmd
}

func loadConfig(path string) (sparcjit.TranslatorConfig, error) {
	if path == "" {
		return sparcjit.NewTranslatorConfig().WithHwcaps(sparcjit.HwcapsAll).WithStubs(demoStubs), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return sparcjit.LoadTranslatorConfig(f)
}

func dumpBlock(w io.Writer, b *sparcjit.CompiledBlock) {
	fmt.Fprintf(w, "guest %#x+%d -> host %#x (fast entry %#x), %d bytes\n",
		b.GuestAddr(), b.GuestLen(), b.HostAddr(), b.FastEP(), len(b.Code()))
	if l := b.Listing(); l != "" {
		fmt.Fprint(w, l)
	}
	code := b.Code()
	for off := 0; off < len(code); off += 16 {
		end := off + 16
		if end > len(code) {
			end = len(code)
		}
		fmt.Fprintf(w, "%04x:", off)
		for k := off; k < end; k += 4 {
			fmt.Fprintf(w, " %x", code[k:k+4])
		}
		fmt.Fprintln(w)
	}
	for _, s := range b.ChainSites() {
		ep := "slow"
		if s.ToFastEP {
			ep = "fast"
		}
		fmt.Fprintf(w, "chain site %#x -> %#x (%s entry, chained=%t)\n", s.Offset, s.Target, ep, s.Chained)
	}
}
