package listing

import (
	"encoding/base64"
	"path"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

const (
	// Delimiter separates name words, size labels and prices in a stem.
	Delimiter = "_"
	// DefaultExtension is used when an upload payload carries no MIME prefix.
	DefaultExtension = "png"
)

var (
	// ErrInvalidSizeSpec is returned for a size specification that is not a
	// comma-separated list of label:price pairs.
	ErrInvalidSizeSpec = errors.New("invalid size specification")
	// ErrInvalidPayload is returned when image data cannot be base64-decoded.
	ErrInvalidPayload = errors.New("invalid image payload")
	// ErrUnsupportedImage is returned for a data URI whose image subtype is
	// not one the gallery lists.
	ErrUnsupportedImage = errors.New("unsupported image type")
)

var imageExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"gif":  {},
}

// IsImage reports whether name ends in a recognized image extension,
// case-insensitively.
func IsImage(name string) bool {
	ext := strings.TrimPrefix(path.Ext(name), ".")
	_, ok := imageExtensions[strings.ToLower(ext)]
	return ok
}

// Stem returns filename without its extension.
func Stem(filename string) string {
	return strings.TrimSuffix(filename, path.Ext(filename))
}

// Decode extracts product metadata from an image filename laid out as
// name tokens followed by label/price token pairs, e.g.
// "Cotton_Shirt_S_899_M_999.png". It never fails: filenames that do not
// follow the layout yield a listing with a single fallback size.
func Decode(filename string) (l Listing) {
	stem := Stem(filename)
	defer func() {
		if r := recover(); r != nil {
			l = Listing{Name: stem, Price: FallbackPrice, Sizes: fallbackSizes()}
		}
	}()
	return decodeStem(stem)
}

func decodeStem(stem string) Listing {
	tokens := strings.Split(stem, Delimiter)
	spaced := strings.Join(tokens, " ")

	first := -1
	for i, tok := range tokens {
		if IsNumeric(tok) {
			first = i
			break
		}
	}
	// The token before the first price is the first size label, so a price in
	// the leading position leaves no room for one.
	if len(tokens) < 3 || first < 1 {
		return Listing{Name: spaced, Price: FallbackPrice, Sizes: fallbackSizes()}
	}

	start := first - 1
	name := strings.Join(tokens[:start], " ")
	if name == "" {
		name = spaced
	}

	var sizes []Size
	for i := start; i+1 < len(tokens); {
		if !IsNumeric(tokens[i+1]) {
			i++
			continue
		}
		sizes = append(sizes, Size{Label: tokens[i], Price: tokens[i+1]})
		i += 2
	}
	if len(sizes) == 0 {
		sizes = fallbackSizes()
	}

	return Listing{
		Name:  name,
		Price: sizes[0].Price,
		Sizes: sizes,
	}
}

// IsNumeric reports whether tok is a plain non-negative decimal number:
// ASCII digits with an optional fractional part.
func IsNumeric(tok string) bool {
	intPart, frac, hasDot := strings.Cut(tok, ".")
	if !allDigits(intPart) {
		return false
	}
	return !hasDot || allDigits(frac)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Encode builds the filename for m: the name words, then a label token and
// a price token per size in order, joined by Delimiter, plus ext.
func Encode(m Metadata, ext string) string {
	tokens := make([]string, 0, 1+2*len(m.Sizes))
	tokens = append(tokens, strings.Join(strings.Fields(m.Name), Delimiter))
	for _, s := range m.Sizes {
		tokens = append(tokens, s.Label, s.Price)
	}
	if ext == "" {
		ext = DefaultExtension
	}
	return strings.Join(tokens, Delimiter) + "." + ext
}

// ParseSizeSpec parses "S:899,M:999" into sizes, preserving input order.
// Prices must be non-negative real numbers and are normalized, labels must be
// single tokens that survive encoding into a filename.
func ParseSizeSpec(spec string) ([]Size, error) {
	var sizes []Size
	for _, pair := range strings.Split(spec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		label, rawPrice, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, errors.Wrapf(ErrInvalidSizeSpec, "pair %q has no price", pair)
		}
		label = strings.TrimSpace(label)
		if !validLabel(label) {
			return nil, errors.Wrapf(ErrInvalidSizeSpec, "label %q", label)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(rawPrice))
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidSizeSpec, "price %q", rawPrice)
		}
		if price.IsNegative() {
			return nil, errors.Wrapf(ErrInvalidSizeSpec, "negative price %q", rawPrice)
		}
		sizes = append(sizes, Size{Label: label, Price: price.String()})
	}
	if len(sizes) == 0 {
		return nil, errors.Wrap(ErrInvalidSizeSpec, "no sizes")
	}
	return sizes, nil
}

func validLabel(label string) bool {
	if label == "" {
		return false
	}
	if strings.ContainsAny(label, Delimiter+"/.,: \t\r\n") {
		return false
	}
	return !IsNumeric(label)
}

// DecodePayload decodes base64 image data. A "data:image/<subtype>;base64,"
// prefix selects the extension, otherwise the payload is taken as bare
// base64 and DefaultExtension is used. Subtypes other than png, jpeg and gif
// fail with ErrUnsupportedImage.
func DecodePayload(payload string) (data []byte, ext string, err error) {
	payload = strings.TrimSpace(payload)
	ext = DefaultExtension

	if rest, ok := strings.CutPrefix(payload, "data:"); ok {
		header, body, found := strings.Cut(rest, ",")
		if !found {
			return nil, "", errors.Wrap(ErrInvalidPayload, "data URI without payload")
		}
		mediaType, _, _ := strings.Cut(header, ";")
		if _, subtype, ok := strings.Cut(mediaType, "/"); ok && subtype != "" {
			subtype, _, _ = strings.Cut(subtype, "+")
			ext = strings.ToLower(subtype)
			if !IsImage("." + ext) {
				return nil, "", errors.Wrapf(ErrUnsupportedImage, "%q", subtype)
			}
		}
		payload = body
	}

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", errors.Wrap(ErrInvalidPayload, err.Error())
	}
	if len(data) == 0 {
		return nil, "", errors.Wrap(ErrInvalidPayload, "empty image")
	}
	return data, ext, nil
}
