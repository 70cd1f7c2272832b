package effectdetect

import (
	"io"
	"mime"
	"path/filepath"
	"strings"
)

// payload is a clip that passed validation: non-empty, within the size
// ceiling, and of an allowed media type.
type payload struct {
	data      []byte
	mediaType string
}

// validate gates every request before any external call is made. It rejects
// with FailInvalidInput and never reads the clip when the declared size or
// media type already disqualifies it.
func (d *Detector) validate(video io.Reader, mediaType string, declaredSize int64) (payload, error) {
	mt := canonicalMediaType(mediaType)
	if _, ok := d.allowed[mt]; !ok {
		return payload{}, newFailure(FailInvalidInput,
			"unsupported media type %q, allowed types are %s", mediaType, strings.Join(d.cfg.AllowedMediaTypes, ", "))
	}

	if declaredSize > d.cfg.MaxUploadBytes {
		return payload{}, newFailure(FailInvalidInput,
			"clip is %d bytes, the limit is %d bytes", declaredSize, d.cfg.MaxUploadBytes)
	}

	if video == nil {
		return payload{}, newFailure(FailInvalidInput, "no clip data provided")
	}

	// Read one byte past the ceiling so undeclared oversize uploads are caught
	// without buffering the excess.
	data, err := io.ReadAll(io.LimitReader(video, d.cfg.MaxUploadBytes+1))
	if err != nil {
		return payload{}, wrapFailure(FailInvalidInput, err, "reading clip data")
	}

	if len(data) == 0 {
		return payload{}, newFailure(FailInvalidInput, "clip is empty")
	}

	if int64(len(data)) > d.cfg.MaxUploadBytes {
		return payload{}, newFailure(FailInvalidInput,
			"clip exceeds the %d byte limit", d.cfg.MaxUploadBytes)
	}

	return payload{data: data, mediaType: mt}, nil
}

// canonicalMediaType reduces a Content-Type value to its lowercase base type,
// dropping parameters such as codecs.
func canonicalMediaType(mediaType string) string {
	base, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		base, _, _ = strings.Cut(mediaType, ";")
	}
	return strings.ToLower(strings.TrimSpace(base))
}

// videoExtensions pins the media types for the extensions this service
// accepts by default. mime.TypeByExtension depends on host tables and maps
// .avi inconsistently across platforms.
var videoExtensions = map[string]string{
	".mp4": "video/mp4",
	".mov": "video/quicktime",
	".avi": "video/x-msvideo",
}

// MediaTypeForFilename guesses the media type of a clip from its file
// extension. It returns the empty string when the extension is unknown.
func MediaTypeForFilename(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if mt, ok := videoExtensions[ext]; ok {
		return mt
	}
	mt, _, err := mime.ParseMediaType(mime.TypeByExtension(ext))
	if err != nil {
		return ""
	}
	return mt
}
