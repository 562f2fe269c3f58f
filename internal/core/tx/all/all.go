// Package all registers every program's instructions with the engine.
package all

import (
	_ "github.com/LeJamon/goOCR2/internal/core/tx/access"
	_ "github.com/LeJamon/goOCR2/internal/core/tx/ocr2"
	_ "github.com/LeJamon/goOCR2/internal/core/tx/store"
	_ "github.com/LeJamon/goOCR2/internal/core/tx/system"
	_ "github.com/LeJamon/goOCR2/internal/core/tx/token"
)
