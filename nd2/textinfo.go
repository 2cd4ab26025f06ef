package nd2

import (
	"errors"

	"github.com/keejkrej/nd2-go/internal/clx"
	"github.com/keejkrej/nd2-go/internal/container"
)

// TextInfo returns the free-form experiment text fields, parsing and
// memoising them on first call. A missing chunk yields an empty TextInfo,
// not an error.
func (r *Reader) TextInfo() (*TextInfo, error) {
	if r.textInfo != nil {
		return r.textInfo, nil
	}

	root, err := r.decodeMetadataClx(r.textInfoChunkName())
	if err != nil {
		var nf *container.ErrChunkNotFound
		if errors.As(err, &nf) {
			empty := &TextInfo{}
			r.textInfo = empty
			return empty, nil
		}
		return nil, err
	}

	obj := unwrapEnvelope(root)
	info := parseTextInfo(obj)
	r.textInfo = info
	return info, nil
}

func parseTextInfo(v clx.Value) *TextInfo {
	fields := v.Object
	info := &TextInfo{}
	info.ImageID = optionalString(fields, "ImageId")
	info.Type = optionalString(fields, "Type")
	info.Group = optionalString(fields, "Group")
	info.SampleID = optionalString(fields, "SampleId")
	info.Author = optionalString(fields, "Author")
	info.Description = optionalString(fields, "Description")
	info.Capturing = optionalString(fields, "Capturing")
	info.Sampling = optionalString(fields, "Sampling")
	info.Location = optionalString(fields, "Location")
	info.Date = optionalString(fields, "Date")
	info.Conclusion = optionalString(fields, "Conclusion")
	info.Info1 = optionalString(fields, "Info1")
	info.Info2 = optionalString(fields, "Info2")
	info.Optics = optionalString(fields, "Optics")
	info.AppVersion = optionalString(fields, "AppVersion")
	return info
}

func optionalString(fields map[string]clx.Value, key string) *string {
	v, ok := fields[key]
	if !ok {
		return nil
	}
	s, ok := v.AsString()
	if !ok {
		return nil
	}
	return &s
}
