package resilience

const DefaultErrorCeiling = 100

type ErrorBudgetConfig struct {
	Limit int
}

func DefaultErrorBudgetConfig() ErrorBudgetConfig {
	return ErrorBudgetConfig{Limit: DefaultErrorCeiling}
}

func NormalizeErrorBudgetConfig(cfg ErrorBudgetConfig) ErrorBudgetConfig {
	if cfg.Limit < 1 {
		cfg.Limit = DefaultErrorCeiling
	}
	return cfg
}

func (c ErrorBudgetConfig) New() *ErrorBudget {
	return NewErrorBudget(NormalizeErrorBudgetConfig(c).Limit)
}
