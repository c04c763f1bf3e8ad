package config

import (
	"errors"
	"fmt"
)

// Validator validates a loaded Config, collecting every problem before
// returning so a deployer sees all misconfigurations in one pass.
type Validator struct {
	cfg *Config
}

// NewValidator constructs a Validator for cfg.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll runs every check and joins all failures together.
func (v *Validator) ValidateAll() error {
	var errs []error
	errs = append(errs, v.validateLLMProviders()...)
	errs = append(errs, v.validateRetention()...)
	errs = append(errs, v.validateSearch()...)
	return joinErrors(errs)
}

func (v *Validator) validateLLMProviders() []error {
	var errs []error
	for tag, p := range v.cfg.LLMProviderRegistry.GetAll() {
		if p.Model == "" {
			errs = append(errs, NewValidationError("llm_provider", string(tag), "model", fmt.Errorf("model required")))
		}
	}
	for _, tag := range v.cfg.ChainOrder {
		if !v.cfg.LLMProviderRegistry.Has(tag) {
			errs = append(errs, NewValidationError("chain_order", string(tag), "", fmt.Errorf("referenced provider not registered")))
		}
	}
	return errs
}

func (v *Validator) validateRetention() []error {
	var errs []error
	r := v.cfg.Retention
	if r.DataPackageCapacityPerTenant < 1 {
		errs = append(errs, NewValidationError("retention", "", "datapackage_capacity_per_tenant", fmt.Errorf("must be at least 1")))
	}
	if r.ExtractionCacheCapacity < 1 {
		errs = append(errs, NewValidationError("retention", "", "extraction_cache_capacity", fmt.Errorf("must be at least 1")))
	}
	if r.MemoryCapacity < 1 {
		errs = append(errs, NewValidationError("retention", "", "memory_capacity", fmt.Errorf("must be at least 1")))
	}
	if r.WatchtowerMaxBackground < 1 {
		errs = append(errs, NewValidationError("retention", "", "watchtower_max_background", fmt.Errorf("must be at least 1")))
	}
	return errs
}

func (v *Validator) validateSearch() []error {
	var errs []error
	s := v.cfg.Search
	if s.RateLimitPerSecond <= 0 {
		errs = append(errs, NewValidationError("search", "", "rate_limit_per_second", fmt.Errorf("must be positive")))
	}
	if s.RateLimitBurst < 1 {
		errs = append(errs, NewValidationError("search", "", "rate_limit_burst", fmt.Errorf("must be at least 1")))
	}
	return errs
}

func joinErrors(errs []error) error {
	var nonNil []error
	for _, e := range errs {
		if e != nil {
			nonNil = append(nonNil, e)
		}
	}
	if len(nonNil) == 0 {
		return nil
	}
	return errors.Join(nonNil...)
}
