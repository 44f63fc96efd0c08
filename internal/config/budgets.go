// Package config contains everything related to configuration
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/xiello/opencode-usage/internal/logger"
	"github.com/xiello/opencode-usage/internal/models"
)

// budgetsFile is the YAML shape of the budgets/limits config:
//
//	budgets:
//	  anthropic:
//	    monthlyTokens: 10000000
//	    monthlyCost: 200
//	limits:
//	  anthropic:
//	    tokens5h: 500000
//	    costDaily: 25
type budgetsFile struct {
	Budgets models.BudgetConfig `yaml:"budgets"`
	Limits  models.LimitConfig  `yaml:"limits"`
}

// LoadBudgets reads the budgets/limits file. A missing or malformed file
// degrades to empty mappings: the dashboard then shows every provider with
// no budget, never an error.
func LoadBudgets(path string) (models.BudgetConfig, models.LimitConfig) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("budgets file unreadable, continuing without budgets", "path", path, "error", err)
		}
		return models.BudgetConfig{}, models.LimitConfig{}
	}

	var f budgetsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		logger.Warn("budgets file malformed, continuing without budgets", "path", path, "error", err)
		return models.BudgetConfig{}, models.LimitConfig{}
	}

	if f.Budgets == nil {
		f.Budgets = models.BudgetConfig{}
	}
	if f.Limits == nil {
		f.Limits = models.LimitConfig{}
	}
	return f.Budgets, f.Limits
}
