package ocr

// Config selects the external binaries and recognition settings.
type Config struct {
	Engine      string // "tesseract" (default) or "gosseract"
	Pdftoppm    string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract   string // binary name or absolute path; if empty -> "tesseract"
	Lang        string // default "eng"
	DPI         int    // rasterization DPI, default 200
	PSM         int    // tesseract page segmentation mode, 0 leaves tesseract's default
	TessdataDir string
}

func (c Config) withDefaults() Config {
	if c.Engine == "" {
		c.Engine = "tesseract"
	}
	if c.Pdftoppm == "" {
		c.Pdftoppm = "pdftoppm"
	}
	if c.Tesseract == "" {
		c.Tesseract = "tesseract"
	}
	if c.Lang == "" {
		c.Lang = "eng"
	}
	if c.DPI <= 0 {
		c.DPI = 200
	}
	return c
}
