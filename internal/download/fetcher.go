// Package download streams a resolved direct URL to a local temp file.
// The file never passes through memory whole: a fixed-size buffer copies
// the body to disk, a hard byte cap guards against under-reported sizes,
// and every failure path removes the partial file before returning.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"syscall"
	"time"

	"terabox-telegram-bot/internal/fault"
)

const copyBufSize = 512 << 10

// Progress is invoked as bytes land on disk. total is 0 when unknown.
type Progress func(done, total int64)

type Fetcher struct {
	// MaxBytes aborts the transfer with TooLarge once exceeded. The
	// extractor's size report is advisory; this cap is the real ceiling.
	MaxBytes int64
	// Timeout bounds the whole transfer, not individual reads.
	Timeout time.Duration

	HTTP *http.Client
}

func New(maxBytes int64, timeout time.Duration) *Fetcher {
	return &Fetcher{
		MaxBytes: maxBytes,
		Timeout:  timeout,
		// No client-level timeout; the per-transfer context handles it.
		HTTP: &http.Client{},
	}
}

// Fetch writes the body of directURL to destPath and returns bytes written.
// sizeHint is the extractor-reported size, used only for progress totals.
// On any error the partial file is removed before the error is returned;
// never retries.
func (f *Fetcher) Fetch(ctx context.Context, directURL, destPath string, sizeHint int64, progress Progress) (int64, error) {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, directURL, nil)
	if err != nil {
		return 0, fault.Errorf(fault.NetworkError, "build request: %v", err)
	}

	resp, err := f.httpClient().Do(req)
	if err != nil {
		return 0, classifyTransferErr(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fault.Errorf(fault.NetworkError, "download status %d", resp.StatusCode)
	}

	total := sizeHint
	if total <= 0 && resp.ContentLength > 0 {
		total = resp.ContentLength
	}

	dst, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return 0, fault.Errorf(fault.DiskFull, "create %s: %v", destPath, err)
	}

	written, err := f.copyBody(ctx, dst, resp.Body, total, progress)
	closeErr := dst.Close()

	if err == nil && closeErr != nil {
		err = classifyWriteErr(fmt.Errorf("close %s: %w", destPath, closeErr))
	}
	if err != nil {
		_ = os.Remove(destPath)
		return 0, err
	}
	return written, nil
}

func (f *Fetcher) copyBody(ctx context.Context, dst *os.File, body io.Reader, total int64, progress Progress) (int64, error) {
	buf := make([]byte, copyBufSize)
	var written int64

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if f.MaxBytes > 0 && written+int64(n) > f.MaxBytes {
				return written, fault.Errorf(fault.TooLarge, "transfer exceeded cap of %d bytes", f.MaxBytes)
			}
			if _, err := dst.Write(buf[:n]); err != nil {
				return written, classifyWriteErr(err)
			}
			written += int64(n)
			if progress != nil {
				progress(written, total)
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, classifyTransferErr(ctx, readErr)
		}
	}
}

func (f *Fetcher) httpClient() *http.Client {
	if f.HTTP != nil {
		return f.HTTP
	}
	return http.DefaultClient
}

func classifyTransferErr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fault.New(fault.Timeout, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		// Shutdown cancellation surfaces as a timeout to the user; the
		// distinction only matters in logs, where the cause is preserved.
		return fault.New(fault.Timeout, err)
	}
	return fault.New(fault.NetworkError, err)
}

func classifyWriteErr(err error) error {
	if errors.Is(err, syscall.ENOSPC) {
		return fault.Errorf(fault.DiskFull, "no space left: %v", err)
	}
	// Other local write failures look the same to the user.
	return fault.New(fault.DiskFull, err)
}
