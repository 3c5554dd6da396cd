package reports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"civicsync-web/models"

	"github.com/abema/go-mp4"
	"github.com/at-wat/ebml-go"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxVideoDuration = 15 * time.Second
	DefaultMaxUploadBytes   = 50 << 20
)

// MediaFile is an accepted upload held in the draft.
type MediaFile struct {
	Name     string
	MIMEType string
	Kind     models.MediaKind
	Data     []byte
	Duration time.Duration
}

// DurationProber reads the playback length of a video.
type DurationProber interface {
	Duration(ctx context.Context, data []byte, mimeType string) (time.Duration, error)
}

// MP4Prober reads the movie header of ISO base media files (mp4, mov).
type MP4Prober struct{}

func (MP4Prober) Duration(ctx context.Context, data []byte, mimeType string) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	info, err := mp4.Probe(bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	if info.Timescale == 0 {
		return 0, errors.New("mp4: movie header has no timescale")
	}
	seconds := float64(info.Duration) / float64(info.Timescale)
	return time.Duration(seconds * float64(time.Second)), nil
}

// MatroskaProber reads the segment info of Matroska and WebM files. When the
// header carries no duration, as with recorder output, the timestamp of the
// last block is used.
type MatroskaProber struct{}

type matroskaBlock struct {
	Timecode uint64       `ebml:"Timecode"`
	Blocks   []ebml.Block `ebml:"SimpleBlock"`
}

type matroskaFile struct {
	Segment struct {
		Info struct {
			TimecodeScale uint64  `ebml:"TimecodeScale"`
			Duration      float64 `ebml:"Duration"`
		} `ebml:"Info"`
		Cluster []matroskaBlock `ebml:"Cluster"`
	} `ebml:"Segment"`
}

func (MatroskaProber) Duration(ctx context.Context, data []byte, mimeType string) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var doc matroskaFile
	err := ebml.Unmarshal(bytes.NewReader(data), &doc, ebml.WithIgnoreUnknown(true))

	info := doc.Segment.Info
	scale := info.TimecodeScale
	if scale == 0 {
		scale = uint64(time.Millisecond)
	}
	if info.Duration > 0 {
		return time.Duration(info.Duration * float64(scale)), nil
	}
	if err != nil {
		return 0, err
	}

	var last int64
	for _, cluster := range doc.Segment.Cluster {
		for _, block := range cluster.Blocks {
			if t := int64(cluster.Timecode) + int64(block.Timecode); t > last {
				last = t
			}
		}
	}
	if last == 0 {
		return 0, errors.New("matroska: no duration or blocks")
	}
	return time.Duration(last) * time.Duration(scale), nil
}

// ContainerProber picks a prober by the sniffed video type.
type ContainerProber map[string]DurationProber

// DefaultProbers covers the ISO base media and Matroska families.
func DefaultProbers() ContainerProber {
	return ContainerProber{
		"video/mp4":        MP4Prober{},
		"video/quicktime":  MP4Prober{},
		"video/x-m4v":      MP4Prober{},
		"video/3gpp":       MP4Prober{},
		"video/3gpp2":      MP4Prober{},
		"video/webm":       MatroskaProber{},
		"video/x-matroska": MatroskaProber{},
	}
}

func (p ContainerProber) Duration(ctx context.Context, data []byte, mimeType string) (time.Duration, error) {
	prober, ok := p[mimeType]
	if !ok {
		return 0, fmt.Errorf("no duration reader for %s", mimeType)
	}
	return prober.Duration(ctx, data, mimeType)
}

// Acceptor decides whether an upload may become the draft media.
type Acceptor struct {
	prober   DurationProber
	maxVideo time.Duration
	maxBytes int64
}

func NewAcceptor(prober DurationProber, maxVideo time.Duration, maxBytes int64) *Acceptor {
	if prober == nil {
		prober = DefaultProbers()
	}
	if maxVideo <= 0 {
		maxVideo = DefaultMaxVideoDuration
	}
	return &Acceptor{prober: prober, maxVideo: maxVideo, maxBytes: maxBytes}
}

// MaxVideo is the longest accepted clip.
func (a *Acceptor) MaxVideo() time.Duration { return a.maxVideo }

// Accept sniffs the content type and, for videos, checks the duration.
// The declared type from the client is only logged; the sniffed type wins.
func (a *Acceptor) Accept(ctx context.Context, name, declared string, data []byte) (MediaFile, error) {
	if len(data) == 0 {
		return MediaFile{}, ErrInvalidFileType
	}
	if a.maxBytes > 0 && int64(len(data)) > a.maxBytes {
		return MediaFile{}, ErrFileTooLarge
	}

	detected := mimetype.Detect(data)
	mimeType := baseType(detected.String())
	if declared != "" && baseType(declared) != mimeType {
		log.Debug().Str("declared", declared).Str("detected", mimeType).Str("file", name).Msg("content type mismatch")
	}

	file := MediaFile{Name: name, MIMEType: mimeType, Data: data}
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		file.Kind = models.MediaImage
	case strings.HasPrefix(mimeType, "video/"):
		d, err := a.prober.Duration(ctx, data, mimeType)
		if err != nil {
			return MediaFile{}, ErrVideoUnreadable.WithCause(err)
		}
		if d > a.maxVideo {
			return MediaFile{}, ErrVideoTooLong.WithParams(map[string]any{"seconds": a.maxVideo.Seconds()})
		}
		file.Kind = models.MediaVideo
		file.Duration = d
	default:
		return MediaFile{}, ErrInvalidFileType
	}
	return file, nil
}

func baseType(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
