package exporter

import "github.com/xuri/excelize/v2"

// styleRegistry caches excelize style IDs so each style is created only
// once per file.
type styleRegistry struct {
	file  *excelize.File
	cache map[string]int
}

func newStyleRegistry(f *excelize.File) *styleRegistry {
	return &styleRegistry{file: f, cache: make(map[string]int)}
}

func (s *styleRegistry) header() (int, error) {
	return s.getOrCreate("header", &excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorder(),
	})
}

func (s *styleRegistry) body() (int, error) {
	return s.getOrCreate("body", &excelize.Style{
		Border: thinBorder(),
	})
}

func (s *styleRegistry) date() (int, error) {
	// 14: built-in short date format.
	return s.getOrCreate("date", &excelize.Style{
		NumFmt: 14,
		Border: thinBorder(),
	})
}

func (s *styleRegistry) amount() (int, error) {
	custom := "#,##0.00"
	return s.getOrCreate("amount", &excelize.Style{
		CustomNumFmt: &custom,
		Alignment:    &excelize.Alignment{Horizontal: "right"},
		Border:       thinBorder(),
	})
}

func (s *styleRegistry) id() (int, error) {
	// 49: built-in text format, so numeric identifiers keep their digits.
	return s.getOrCreate("id", &excelize.Style{
		NumFmt:    49,
		Alignment: &excelize.Alignment{Horizontal: "left"},
		Border:    thinBorder(),
	})
}

func (s *styleRegistry) getOrCreate(key string, style *excelize.Style) (int, error) {
	if id, ok := s.cache[key]; ok {
		return id, nil
	}
	id, err := s.file.NewStyle(style)
	if err != nil {
		return 0, err
	}
	s.cache[key] = id
	return id, nil
}

func thinBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "D9D9D9", Style: 1},
		{Type: "right", Color: "D9D9D9", Style: 1},
		{Type: "top", Color: "D9D9D9", Style: 1},
		{Type: "bottom", Color: "D9D9D9", Style: 1},
	}
}
