package domain

// Margin holds CSS lengths such as "20px" or "1.5cm".
type Margin struct {
	Top    string `json:"top"`
	Right  string `json:"right"`
	Bottom string `json:"bottom"`
	Left   string `json:"left"`
}

// RenderConfig is the effective configuration handed to the browser.
type RenderConfig struct {
	Format              string  `json:"format"`
	PrintBackground     bool    `json:"printBackground"`
	Margin              Margin  `json:"margin"`
	Scale               float64 `json:"scale"`
	Landscape           bool    `json:"landscape"`
	PreferCSSPageSize   bool    `json:"preferCSSPageSize"`
	DisplayHeaderFooter bool    `json:"displayHeaderFooter"`
	HeaderTemplate      string  `json:"headerTemplate"`
	FooterTemplate      string  `json:"footerTemplate"`
	PageRanges          string  `json:"pageRanges"`
}

// MarginOverrides is a partial Margin; nil sides keep their default.
type MarginOverrides struct {
	Top    *string `json:"top,omitempty"`
	Right  *string `json:"right,omitempty"`
	Bottom *string `json:"bottom,omitempty"`
	Left   *string `json:"left,omitempty"`
}

// RenderOverrides is the caller-supplied partial configuration. A nil field
// (absent or JSON null) keeps the default.
type RenderOverrides struct {
	Format              *string          `json:"format,omitempty"`
	PrintBackground     *bool            `json:"printBackground,omitempty"`
	Margin              *MarginOverrides `json:"margin,omitempty"`
	Scale               *float64         `json:"scale,omitempty"`
	Landscape           *bool            `json:"landscape,omitempty"`
	PreferCSSPageSize   *bool            `json:"preferCSSPageSize,omitempty"`
	DisplayHeaderFooter *bool            `json:"displayHeaderFooter,omitempty"`
	HeaderTemplate      *string          `json:"headerTemplate,omitempty"`
	FooterTemplate      *string          `json:"footerTemplate,omitempty"`
	PageRanges          *string          `json:"pageRanges,omitempty"`
}

// Scale bounds accepted by the browser's print engine.
const (
	MinScale = 0.1
	MaxScale = 2.0
)

// DefaultRenderConfig returns the configuration used when the caller sends none.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		Format:          "A4",
		PrintBackground: true,
		Margin: Margin{
			Top:    "20px",
			Right:  "20px",
			Bottom: "20px",
			Left:   "20px",
		},
		Scale: 1.0,
	}
}

// Merge overlays o onto defaults. Margin sides merge one by one. Only the scale
// is validated; everything else goes to the browser as given.
func Merge(defaults RenderConfig, o *RenderOverrides) (RenderConfig, error) {
	cfg := defaults
	if o != nil {
		setString(&cfg.Format, o.Format)
		setBool(&cfg.PrintBackground, o.PrintBackground)
		if o.Scale != nil {
			cfg.Scale = *o.Scale
		}
		setBool(&cfg.Landscape, o.Landscape)
		setBool(&cfg.PreferCSSPageSize, o.PreferCSSPageSize)
		setBool(&cfg.DisplayHeaderFooter, o.DisplayHeaderFooter)
		setString(&cfg.HeaderTemplate, o.HeaderTemplate)
		setString(&cfg.FooterTemplate, o.FooterTemplate)
		setString(&cfg.PageRanges, o.PageRanges)
		if m := o.Margin; m != nil {
			setString(&cfg.Margin.Top, m.Top)
			setString(&cfg.Margin.Right, m.Right)
			setString(&cfg.Margin.Bottom, m.Bottom)
			setString(&cfg.Margin.Left, m.Left)
		}
	}

	if cfg.Scale < MinScale || cfg.Scale > MaxScale {
		return RenderConfig{}, ErrInvalidScale
	}
	return cfg, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
