package sparcjit

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/sparcjit/sparcjit/internal/engine/backend/isa/sparc64"
	"github.com/sparcjit/sparcjit/internal/engine/backend/regalloc"
	"github.com/sparcjit/sparcjit/internal/engine/jitapi"
)

// Hwcaps is the set of optional instruction set extensions of the host.
type Hwcaps = jitapi.Hwcaps

const (
	// HwcapVIS2 is the VIS 2.0 extension.
	HwcapVIS2 = jitapi.HwcapVIS2
	// HwcapVIS3 is the VIS 3.0 extension.
	HwcapVIS3 = jitapi.HwcapVIS3
	// HwcapSPARC5 is the Oracle SPARC Architecture 2015 extension.
	HwcapSPARC5 = jitapi.HwcapSPARC5
	// HwcapsAll is every extension the translator knows of.
	HwcapsAll = jitapi.HwcapsAll
)

// Stubs are the host addresses of the dispatcher entry points translated code leaves through.
type Stubs = sparc64.Stubs

// TranslatorConfig controls translator behavior, with the default implementation as NewTranslatorConfig.
//
// The example below explicitly limits the host to the baseline instruction set:
//
//	tc := sparcjit.NewTranslatorConfig().WithHwcaps(0)
//	t, err := sparcjit.NewTranslator(tc)
//
// Note: TranslatorConfig is immutable. Each WithXXX function returns a new instance including the corresponding
// change.
type TranslatorConfig interface {
	// WithHwcaps sets the instruction set extensions the generated code may use. Defaults to none.
	//
	// Translating a block which needs a missing extension panics.
	WithHwcaps(Hwcaps) TranslatorConfig

	// WithChaining allows direct and indirect exits, which the dispatcher can link to other blocks. Defaults to
	// true. Without it every exit goes through the assisted exit stub.
	WithChaining(bool) TranslatorConfig

	// WithProfInc reserves the profiling counter increment after the event check of every block. Defaults to
	// false.
	WithProfInc(bool) TranslatorConfig

	// WithStubs sets the dispatcher entry points. There is no default: a translator needs them.
	WithStubs(Stubs) TranslatorConfig

	// WithSpillAreaOffset moves the spill slots within the guest state. Defaults to 1024. The area ends where
	// a 13-bit displacement from the guest state pointer stops reaching.
	WithSpillAreaOffset(offset int32) TranslatorConfig

	// WithCodeBase sets the host address the first translated block is installed at. Blocks are laid out one after
	// the other, 16-byte aligned, from there. Defaults to 0x100000000.
	WithCodeBase(addr uint64) TranslatorConfig

	// WithCompilationCache configures how translated blocks are cached across translators. Defaults to none.
	//
	// See NewCompilationCache and NewCompilationCacheWithDir.
	WithCompilationCache(CompilationCache) TranslatorConfig
}

type translatorConfig struct {
	hwcaps          Hwcaps
	chaining        bool
	profInc         bool
	stubs           Stubs
	spillAreaOffset int32
	codeBase        uint64
	cache           CompilationCache
}

// translatorConfigDefault is translatorConfig initialized with the defaults.
var translatorConfigDefault = &translatorConfig{
	chaining:        true,
	spillAreaOffset: jitapi.DefaultSpillAreaOffset,
	codeBase:        defaultCodeBase,
}

const defaultCodeBase = 0x1_0000_0000

// NewTranslatorConfig returns a TranslatorConfig using the defaults.
func NewTranslatorConfig() TranslatorConfig {
	ret := translatorConfigDefault.clone()
	return ret
}

func (c *translatorConfig) clone() *translatorConfig {
	ret := *c
	return &ret
}

// WithHwcaps implements TranslatorConfig.WithHwcaps
func (c *translatorConfig) WithHwcaps(hwcaps Hwcaps) TranslatorConfig {
	ret := c.clone()
	ret.hwcaps = hwcaps
	return ret
}

// WithChaining implements TranslatorConfig.WithChaining
func (c *translatorConfig) WithChaining(enabled bool) TranslatorConfig {
	ret := c.clone()
	ret.chaining = enabled
	return ret
}

// WithProfInc implements TranslatorConfig.WithProfInc
func (c *translatorConfig) WithProfInc(enabled bool) TranslatorConfig {
	ret := c.clone()
	ret.profInc = enabled
	return ret
}

// WithStubs implements TranslatorConfig.WithStubs
func (c *translatorConfig) WithStubs(stubs Stubs) TranslatorConfig {
	ret := c.clone()
	ret.stubs = stubs
	return ret
}

// WithSpillAreaOffset implements TranslatorConfig.WithSpillAreaOffset
func (c *translatorConfig) WithSpillAreaOffset(offset int32) TranslatorConfig {
	ret := c.clone()
	ret.spillAreaOffset = offset
	return ret
}

// WithCodeBase implements TranslatorConfig.WithCodeBase
func (c *translatorConfig) WithCodeBase(addr uint64) TranslatorConfig {
	ret := c.clone()
	ret.codeBase = addr
	return ret
}

// WithCompilationCache implements TranslatorConfig.WithCompilationCache
func (c *translatorConfig) WithCompilationCache(cache CompilationCache) TranslatorConfig {
	ret := c.clone()
	ret.cache = cache
	return ret
}

// spillAreaEnd is the first guest state offset a 13-bit displacement cannot reach with a 16-byte access.
const spillAreaEnd = 4096 - 16

func (c *translatorConfig) validate() error {
	if c.spillAreaOffset < jitapi.GuestStateSize || c.spillAreaOffset%16 != 0 || c.spillAreaOffset >= spillAreaEnd {
		return fmt.Errorf("invalid spill area offset %d: must be a multiple of 16 in [%d, %d)",
			c.spillAreaOffset, jitapi.GuestStateSize, spillAreaEnd)
	}
	if c.codeBase%16 != 0 {
		return fmt.Errorf("invalid code base %#x: must be 16-byte aligned", c.codeBase)
	}
	s := c.stubs
	if s.ChainMeToSlowEP == 0 || s.ChainMeToFastEP == 0 || s.XIndir == 0 || s.XAssisted == 0 {
		return errors.New("dispatcher stubs are not configured")
	}
	if s.LoadGuestRegs == 0 || s.StoreGuestRegs == 0 {
		return errors.New("guest register trampolines are not configured")
	}
	return nil
}

func (c *translatorConfig) machineConfig() sparc64.Config {
	return sparc64.Config{
		Hwcaps:   c.hwcaps,
		Chaining: c.chaining,
		ProfInc:  c.profInc,
		Stubs:    c.stubs,
		SpillArea: regalloc.SpillArea{
			Offset: c.spillAreaOffset,
			Size:   spillAreaEnd - c.spillAreaOffset,
		},
	}
}

// fingerprint identifies everything about the configuration which changes the generated code.
func (c *translatorConfig) fingerprint() []byte {
	return []byte(fmt.Sprintf("%s/%t/%t/%+v/%d", c.hwcaps, c.chaining, c.profInc, c.stubs, c.spillAreaOffset))
}

// yamlConfig is the YAML document read by LoadTranslatorConfig.
type yamlConfig struct {
	Hwcaps          []string `yaml:"hwcaps"`
	Chaining        *bool    `yaml:"chaining"`
	ProfInc         bool     `yaml:"prof_inc"`
	SpillAreaOffset *int32   `yaml:"spill_area_offset"`
	CodeBase        *uint64  `yaml:"code_base"`
	Stubs           struct {
		ChainMeToSlowEP uint64 `yaml:"chain_me_to_slow_ep"`
		ChainMeToFastEP uint64 `yaml:"chain_me_to_fast_ep"`
		XIndir          uint64 `yaml:"xindir"`
		XAssisted       uint64 `yaml:"xassisted"`
		LoadGuestRegs   uint64 `yaml:"load_guest_regs"`
		StoreGuestRegs  uint64 `yaml:"store_guest_regs"`
	} `yaml:"stubs"`
	// CacheDir enables a file-backed compilation cache.
	CacheDir string `yaml:"cache_dir"`
}

// LoadTranslatorConfig reads a TranslatorConfig from YAML. Keys left out keep their defaults:
//
//	hwcaps: [vis2, vis3]
//	chaining: true
//	code_base: 0x100000000
//	stubs:
//	  chain_me_to_slow_ep: 0x10000
//	  chain_me_to_fast_ep: 0x10400
//	  xindir: 0x10800
//	  xassisted: 0x10c00
//	  load_guest_regs: 0x11000
//	  store_guest_regs: 0x11400
//	cache_dir: /var/cache/sparcjit
func LoadTranslatorConfig(r io.Reader) (TranslatorConfig, error) {
	var y yamlConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&y); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid translator config: %w", err)
	}

	hwcaps, err := jitapi.ParseHwcaps(y.Hwcaps)
	if err != nil {
		return nil, fmt.Errorf("invalid translator config: %w", err)
	}
	ret := translatorConfigDefault.clone()
	ret.hwcaps = hwcaps
	if y.Chaining != nil {
		ret.chaining = *y.Chaining
	}
	ret.profInc = y.ProfInc
	if y.SpillAreaOffset != nil {
		ret.spillAreaOffset = *y.SpillAreaOffset
	}
	if y.CodeBase != nil {
		ret.codeBase = *y.CodeBase
	}
	ret.stubs = Stubs{
		ChainMeToSlowEP: y.Stubs.ChainMeToSlowEP,
		ChainMeToFastEP: y.Stubs.ChainMeToFastEP,
		XIndir:          y.Stubs.XIndir,
		XAssisted:       y.Stubs.XAssisted,
		LoadGuestRegs:   y.Stubs.LoadGuestRegs,
		StoreGuestRegs:  y.Stubs.StoreGuestRegs,
	}
	if y.CacheDir != "" {
		if ret.cache, err = NewCompilationCacheWithDir(y.CacheDir); err != nil {
			return nil, err
		}
	}
	return ret, nil
}
