package encryption

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tink-crypto/tink-go/v2/subtle/random"
	"golang.org/x/sync/errgroup"

	"github.com/idelchi/tfcs/internal/cbccs"
	"github.com/idelchi/tfcs/internal/config"
	"github.com/idelchi/tfcs/internal/fileutil"
	"github.com/idelchi/tfcs/internal/threefish"
)

// Result is the outcome of processing a single file.
type Result struct {
	// Input and output file paths; Output is empty on error
	Input  string
	Output string

	// Sizes in bytes of the input and the produced output
	InputSize  int64
	OutputSize int64

	// Any error that occurred during processing
	Error error
}

// Summary aggregates the results of a ProcessFiles run.
type Summary struct {
	Processed int
	Errored   int
	InputSize int64
	TotalSize int64
}

// Processor encrypts or decrypts files and streams with one keyed cipher.
type Processor struct {
	// cfg contains runtime configuration options
	cfg *config.Config

	// block is Threefish keyed with the configured key and tweak
	block *threefish.Cipher

	// iv is the fixed IV from the configuration, nil to draw a random one per stream
	iv []byte

	log zerolog.Logger

	// results channels processing outcomes to the printer goroutine
	results chan Result
}

// NewProcessor creates a Processor for the given configuration.
// It resolves the key and tweak and keys the cipher once for all files.
func NewProcessor(cfg *config.Config, log zerolog.Logger) (*Processor, error) {
	key, err := LoadKey(cfg)
	if err != nil {
		return nil, fmt.Errorf("reading key: %w", err)
	}

	var tweak []byte

	if cfg.Tweak != "" {
		if tweak, err = hex.DecodeString(cfg.Tweak); err != nil {
			return nil, fmt.Errorf("decoding tweak: %w", err)
		}
	}

	block, err := threefish.New(key, tweak)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	processor := &Processor{
		cfg:     cfg,
		block:   block,
		log:     log,
		results: make(chan Result, len(cfg.Files)),
	}

	if cfg.IV != "" {
		if processor.iv, err = hex.DecodeString(cfg.IV); err != nil {
			return nil, fmt.Errorf("decoding IV: %w", err)
		}

		if !cfg.Decrypt && len(cfg.Files) > 1 {
			log.Warn().Int("files", len(cfg.Files)).Msg("reusing a fixed IV across files under one key leaks equal prefixes")
		}
	}

	return processor, nil
}

// ProcessFiles concurrently processes all files specified in the configuration.
// Per-file failures are logged and counted; the returned error is the first of them.
//
//nolint:cyclop
func (p *Processor) ProcessFiles() (Summary, error) {
	var summary Summary

	group := errgroup.Group{}
	group.SetLimit(p.cfg.Parallel)

	done := make(chan struct{})

	go func() {
		defer close(done)

		for result := range p.results {
			if result.Error != nil {
				summary.Errored++

				p.log.Error().Err(result.Error).Str("input", result.Input).Msg("processing failed")

				continue
			}

			summary.Processed++
			summary.InputSize += result.InputSize
			summary.TotalSize += result.OutputSize

			p.log.Info().Str("input", result.Input).Str("output", result.Output).Msg("processed")

			if p.cfg.Delete {
				if err := os.Remove(result.Input); err != nil {
					p.log.Error().Err(err).Str("input", result.Input).Msg("deleting input failed")
				} else {
					p.log.Info().Str("input", result.Input).Msg("deleted")
				}
			}
		}
	}()

	for _, file := range p.cfg.Files {
		group.Go(func() error {
			outPath := p.OutputPath(file)

			var (
				in, out int64
				err     error
			)

			if outPath == filepath.Clean(file) {
				err = fmt.Errorf("%w: %q", ErrSameFile, outPath)
			} else {
				in, out, err = p.processFile(file, outPath)
			}

			if err != nil {
				p.results <- Result{Input: file, Error: err}

				return fmt.Errorf("%q: %w", file, err)
			}

			p.results <- Result{Input: file, Output: outPath, InputSize: in, OutputSize: out}

			return nil
		})
	}

	err := group.Wait()

	close(p.results)

	<-done // Wait for printer to finish

	if err != nil {
		return summary, fmt.Errorf("processing files: %w", err)
	}

	return summary, nil
}

// ProcessStream encrypts or decrypts everything read from reader into writer.
func (p *Processor) ProcessStream(reader io.Reader, writer io.Writer) error {
	buffered := bufio.NewWriterSize(writer, defaultBufferSize)

	var err error

	if p.cfg.Decrypt {
		err = p.decrypt(reader, buffered)
	} else {
		err = p.encrypt(reader, buffered)
	}

	if err != nil {
		return err
	}

	if err := buffered.Flush(); err != nil {
		return fmt.Errorf("flushing output: %w", err)
	}

	return nil
}

// encrypt writes the IV and the CBC-CS ciphertext of everything read from reader.
func (p *Processor) encrypt(reader io.Reader, writer io.Writer) error {
	iv := p.iv
	if iv == nil {
		iv = random.GetRandomBytes(uint32(p.block.BlockSize())) //nolint:gosec
	}

	enc, err := cbccs.NewEncrypter(writer, p.block, iv)
	if err != nil {
		return fmt.Errorf("creating encrypter: %w", err)
	}

	if err := copyBuffered(enc, reader); err != nil {
		return err
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("finishing encryption: %w", err)
	}

	return nil
}

// decrypt reads the IV and ciphertext from reader and writes the plaintext.
func (p *Processor) decrypt(reader io.Reader, writer io.Writer) error {
	dec := cbccs.NewDecrypter(writer, p.block)

	if err := copyBuffered(dec, reader); err != nil {
		return err
	}

	if err := dec.Close(); err != nil {
		return fmt.Errorf("finishing decryption: %w", err)
	}

	return nil
}

// processFile handles the encryption or decryption of a single file.
// It writes to a temporary file and renames it into place on success.
func (p *Processor) processFile(filename, outPath string) (inSize, outSize int64, err error) {
	out, err := fileutil.Create(filename, outPath)
	if err != nil {
		return 0, 0, fmt.Errorf("preparing atomic write: %w", err)
	}

	defer out.Discard()

	inFile, err := os.Open(filepath.Clean(filename))
	if err != nil {
		return 0, 0, fmt.Errorf("opening input file: %w", err)
	}
	defer inFile.Close()

	if err := p.ProcessStream(inFile, out); err != nil {
		if p.cfg.Decrypt {
			return 0, 0, fmt.Errorf("decrypting file: %w", err)
		}

		return 0, 0, fmt.Errorf("encrypting file: %w", err)
	}

	if err := inFile.Close(); err != nil {
		return 0, 0, fmt.Errorf("closing input file: %w", err)
	}

	outSize, err = out.Commit(p.cfg.PreserveTimestamps)
	if err != nil {
		return 0, 0, fmt.Errorf("finalizing output: %w", err)
	}

	return out.Source.Size(), outSize, nil
}

// OutputPath derives the output file path from the input path and the configured suffixes.
func (p *Processor) OutputPath(filename string) string {
	return OutputPath(p.cfg, filename)
}

// OutputPath derives the output file path for filename under cfg.
// Encryption appends the encrypt suffix; decryption strips it and appends the decrypt suffix.
func OutputPath(cfg *config.Config, filename string) string {
	ext := cfg.Suffixes.Encrypt

	if cfg.Decrypt {
		filename = strings.TrimSuffix(filename, cfg.Suffixes.Encrypt)
		ext = cfg.Suffixes.Decrypt
	}

	return filepath.Join(filepath.Dir(filename), filepath.Base(filename)+ext)
}

func copyBuffered(dst io.Writer, src io.Reader) error {
	buf, _ := bufferPool.Get().(*[]byte) //nolint:errcheck // the pool only holds *[]byte
	defer bufferPool.Put(buf)

	if _, err := io.CopyBuffer(onlyWriter{dst}, onlyReader{src}, *buf); err != nil {
		return fmt.Errorf("copying stream: %w", err)
	}

	return nil
}

// onlyWriter and onlyReader hide ReadFrom/WriteTo so io.CopyBuffer uses the pooled buffer.
type (
	onlyWriter struct{ io.Writer }
	onlyReader struct{ io.Reader }
)
