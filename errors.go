package docquiz

import "errors"

var (
	// ErrExtractionEmpty means no text at all could be recovered from the document.
	ErrExtractionEmpty = errors.New("no text could be extracted from the document")

	// ErrTOCNotFound means every table-of-contents tier came back empty.
	ErrTOCNotFound = errors.New("no table of contents entries found")

	// ErrElementCatalogEmpty means no figures, tables or annexes were found. Not fatal.
	ErrElementCatalogEmpty = errors.New("no figures, tables or annexes found")

	// ErrDistractorShortfall means fewer than k-1 distinct wrong answers were available.
	ErrDistractorShortfall = errors.New("not enough distinct distractors")

	// ErrNoCandidates means no entry pool could serve the requested category.
	ErrNoCandidates = errors.New("no entries available for any compatible category")

	// ErrUnsupportedFormat is returned for document formats without a registered extractor.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrNoQuestion means the content generator gave up on a passage.
	ErrNoQuestion = errors.New("no question produced for passage")
)
