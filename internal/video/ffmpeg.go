package video

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"

	"github.com/ivlev/reelforge/internal/pkg/errors"
	"github.com/ivlev/reelforge/internal/pkg/logger"
)

// FFmpegSink pipes raw RGBA frames into an ffmpeg H.264 encoder, collects the audio bed
// in a WAV file and muxes both into an MP4 on End.
type FFmpegSink struct {
	Binary string
	TmpDir string
	Log    *logger.Logger

	mu      sync.Mutex
	format  Format
	dir     string
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	pipe    *bufio.Writer
	stderr  stderrBuffer
	wavFile *os.File
	wavEnc  *wav.Encoder
	pacer   Pacer
	last    []byte
	done    bool
}

func NewFFmpegSink(log *logger.Logger) *FFmpegSink {
	if log == nil {
		log = logger.Discard()
	}
	return &FFmpegSink{Binary: "ffmpeg", Log: log.WithComponent("video")}
}

func (s *FFmpegSink) MIMEType() string { return "video/mp4" }

func (s *FFmpegSink) videoPath() string { return filepath.Join(s.dir, "video.mp4") }
func (s *FFmpegSink) audioPath() string { return filepath.Join(s.dir, "bed.wav") }
func (s *FFmpegSink) outPath() string   { return filepath.Join(s.dir, "final.mp4") }

func (s *FFmpegSink) Begin(ctx context.Context, f Format) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f.Encoder == "" {
		f.Encoder = "libx264"
	}
	if f.SampleRate <= 0 {
		f.SampleRate = 48000
	}
	s.format = f
	s.pacer = Pacer{FPS: f.FPS}

	dir, err := os.MkdirTemp(s.TmpDir, "reelforge-"+uuid.NewString()[:8]+"-")
	if err != nil {
		return errors.EncoderFailure("video.Begin", fmt.Errorf("create temp dir: %w", err))
	}
	s.dir = dir

	s.wavFile, err = os.Create(s.audioPath())
	if err != nil {
		s.cleanupLocked()
		return errors.EncoderFailure("video.Begin", fmt.Errorf("create wav: %w", err))
	}
	s.wavEnc = wav.NewEncoder(s.wavFile, f.SampleRate, 16, 1, 1)

	args := BuildVideoArgs(f, s.videoPath())
	s.cmd = exec.CommandContext(ctx, s.Binary, args...)
	s.cmd.Stderr = &s.stderr

	s.stdin, err = s.cmd.StdinPipe()
	if err != nil {
		s.cleanupLocked()
		return errors.EncoderFailure("video.Begin", fmt.Errorf("stdin pipe error: %w", err))
	}
	if err := s.cmd.Start(); err != nil {
		s.cleanupLocked()
		return errors.EncoderFailure("video.Begin", fmt.Errorf("ffmpeg start error: %w", err))
	}
	s.pipe = bufio.NewWriterSize(s.stdin, f.Width*f.Height*4)

	s.Log.Debug("encoder started", "encoder", f.Encoder, "size", fmt.Sprintf("%dx%d", f.Width, f.Height), "fps", f.FPS, "dir", dir)
	return nil
}

func (s *FFmpegSink) EncodeFrame(img *image.RGBA, t time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pipe == nil {
		return errors.EncoderFailure("video.EncodeFrame", fmt.Errorf("sink not started"))
	}

	held, ok := s.pacer.Advance(t)
	if !ok {
		return nil
	}
	pix := rawRGBA(img, s.format.Width, s.format.Height)
	// A late first frame has nothing to hold, so it fills the gap itself.
	prev := s.last
	if prev == nil {
		prev = pix
	}
	for i := 0; i < held; i++ {
		if _, err := s.pipe.Write(prev); err != nil {
			return errors.EncoderFailure("video.EncodeFrame", s.withStderr(fmt.Errorf("write raw error: %w", err)))
		}
	}
	if _, err := s.pipe.Write(pix); err != nil {
		return errors.EncoderFailure("video.EncodeFrame", s.withStderr(fmt.Errorf("write raw error: %w", err)))
	}
	s.last = append(s.last[:0], pix...)
	return nil
}

func (s *FFmpegSink) WriteAudio(buf *goaudio.IntBuffer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wavEnc == nil {
		return errors.EncoderFailure("video.WriteAudio", fmt.Errorf("sink not started"))
	}
	return s.wavEnc.Write(buf)
}

// End pads the video to t, waits for the encoder and muxes in the audio bed.
func (s *FFmpegSink) End(ctx context.Context, t time.Duration) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pipe == nil || s.done {
		return nil, errors.EncoderFailure("video.End", fmt.Errorf("sink not started"))
	}
	s.done = true
	defer s.cleanupLocked()

	if s.last != nil {
		for i := s.pacer.Pad(t); i > 0; i-- {
			if _, err := s.pipe.Write(s.last); err != nil {
				return nil, errors.EncoderFailure("video.End", s.withStderr(fmt.Errorf("write raw error: %w", err)))
			}
		}
	}
	if err := s.pipe.Flush(); err != nil {
		return nil, errors.EncoderFailure("video.End", s.withStderr(fmt.Errorf("flush error: %w", err)))
	}
	s.stdin.Close()
	s.stdin = nil
	if err := s.cmd.Wait(); err != nil {
		return nil, errors.EncoderFailure("video.End", s.withStderr(fmt.Errorf("ffmpeg wait error: %w", err)))
	}
	s.cmd = nil

	if err := s.wavEnc.Close(); err != nil {
		return nil, errors.EncoderFailure("video.End", fmt.Errorf("close wav: %w", err))
	}
	s.wavEnc = nil
	s.wavFile.Close()
	s.wavFile = nil

	mux := exec.CommandContext(ctx, s.Binary, BuildMuxArgs(s.videoPath(), s.audioPath(), s.outPath())...)
	if out, err := mux.CombinedOutput(); err != nil {
		return nil, errors.EncoderFailure("video.End", fmt.Errorf("ffmpeg mux error: %v, output: %s", err, string(out)))
	}

	data, err := os.ReadFile(s.outPath())
	if err != nil {
		return nil, errors.EncoderFailure("video.End", err)
	}
	s.Log.Debug("container finalized", "frames", s.pacer.Emitted(), "bytes", len(data))
	return data, nil
}

func (s *FFmpegSink) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
	s.cleanupLocked()
	return nil
}

func (s *FFmpegSink) cleanupLocked() {
	if s.stdin != nil {
		s.stdin.Close()
		s.stdin = nil
	}
	if s.cmd != nil && s.cmd.Process != nil {
		s.cmd.Process.Kill()
		s.cmd.Wait()
	}
	s.cmd = nil
	if s.wavFile != nil {
		s.wavFile.Close()
		s.wavFile = nil
	}
	s.wavEnc = nil
	s.pipe = nil
	if s.dir != "" {
		os.RemoveAll(s.dir)
		s.dir = ""
	}
}

func (s *FFmpegSink) withStderr(err error) error {
	out := s.stderr.String()
	if out == "" {
		return err
	}
	return fmt.Errorf("%w, output: %s", err, out)
}

// stderrBuffer is written by exec's copy goroutine while the sink reads it on failure.
type stderrBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *stderrBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *stderrBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// rawRGBA returns tightly packed RGBA bytes of the expected frame size.
func rawRGBA(img *image.RGBA, w, h int) []byte {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h && img.Stride == w*4 && b.Min == (image.Point{}) {
		return img.Pix
	}
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba.Pix
}

// BuildVideoArgs reads raw RGBA frames from stdin at a constant rate.
func BuildVideoArgs(f Format, videoPath string) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", f.Width, f.Height),
		"-framerate", fmt.Sprintf("%d", f.FPS),
		"-i", "-",
		"-an",
		"-pix_fmt", "yuv420p",
		"-c:v", f.Encoder,
	}
	args = append(args, QualityArgs(f.Encoder, f.Quality)...)
	return append(args, videoPath)
}

// QualityArgs maps one quality knob onto each encoder's rate control.
func QualityArgs(encoder string, quality int) []string {
	switch encoder {
	case "h264_videotoolbox":
		// VideoToolbox does not take -crf; quality 75 -> 7.5 Mbit/s.
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", quality)}
	default:
		return []string{"-crf", fmt.Sprintf("%d", quality), "-preset", "medium"}
	}
}

// BuildMuxArgs copies the video stream and encodes the bed to AAC. The audio is padded
// with silence so the video length decides the container length.
func BuildMuxArgs(videoPath, audioPath, outPath string) []string {
	return []string{
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-af", "apad",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		"-movflags", "+faststart",
		outPath,
	}
}
