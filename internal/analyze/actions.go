// Package analyze implements the convert command: pull an amount out of
// text and convert it the way the tooltip would.
package analyze

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dtnitsch/fxlens/internal/common"
	"github.com/dtnitsch/fxlens/models"
	"github.com/dtnitsch/fxlens/pkg/pipeline"
	"github.com/dtnitsch/fxlens/pkg/settings"
	"github.com/dtnitsch/fxlens/pkg/tooltip"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// Output is what convert prints.
type Output struct {
	Input   string                  `json:"input" yaml:"input"`
	Result  models.ConversionResult `json:"result" yaml:"result"`
	Tooltip []string                `json:"tooltip" yaml:"tooltip"`
}

func ConvertAction(c *cli.Context) error {
	text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if text == "" {
		return common.Usagef("no text given. Example: fxlens convert '¥12,800'")
	}

	env, err := common.Bootstrap(c)
	if err != nil {
		return err
	}
	defer env.Close()

	s, _, err := env.Settings.Load(c.Context)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	s, err = applyFlags(c, s)
	if err != nil {
		return err
	}

	res, err := pipeline.Convert(c.Context, env.Rates, s, text)
	if errors.Is(err, pipeline.ErrNoAmount) {
		env.Logger.Info("no amount found", zap.String("text", text))
		return common.Usagef("no amount found in %q", text)
	}
	if err != nil {
		return err
	}

	content := tooltip.Compose(res)
	if c.Bool("render") {
		tooltip.NewTerminalView(os.Stdout).Show(tooltip.Rect{}, content)
		return nil
	}
	return common.Emit(os.Stdout, c.String("format"), Output{
		Input:   text,
		Result:  res,
		Tooltip: content.Lines(),
	})
}

// applyFlags overlays one-off flag values on the stored settings.
func applyFlags(c *cli.Context, s models.ConversionSettings) (models.ConversionSettings, error) {
	if c.IsSet("from") {
		s.FromCurrency = strings.ToUpper(c.String("from"))
	}
	if c.IsSet("to") {
		s.ToCurrency = strings.ToUpper(c.String("to"))
	}
	for _, code := range []string{s.FromCurrency, s.ToCurrency} {
		if !settings.ValidCurrency(code) {
			return s, common.Usagef("invalid currency code %q", code)
		}
	}
	if c.IsSet("fee") {
		s.ProcessingFeeEnabled = c.Bool("fee")
	}
	if c.IsSet("tariff") {
		pct := c.Float64("tariff")
		if pct < 0 || pct > 100 {
			return s, common.Usagef("tariff must be between 0 and 100, got %v", pct)
		}
		s.TariffEnabled = true
		s.TariffPercentage = pct
	}
	return s, nil
}

// Flags are the convert command's flags.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "from", Usage: "source currency (default: stored setting)"},
		&cli.StringFlag{Name: "to", Usage: "target currency (default: stored setting)"},
		&cli.BoolFlag{Name: "fee", Usage: "add the 5% processing fee"},
		&cli.Float64Flag{Name: "tariff", Usage: "add a tariff of this percentage"},
		&cli.BoolFlag{Name: "render", Usage: "print the tooltip box instead of structured output"},
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "yaml", Usage: "output format: yaml or json"},
	}
}
