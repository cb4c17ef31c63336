package browsershot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/root4loot/goutils/log"

	shot "github.com/root4loot/browsershot/pkg/browsershot"
)

var errMissingHost = errors.New("missing host")

func (r *Runner) worker(ctx context.Context, target string) Result {
	log.Debugf("Running worker on %s", target)

	result := Result{URL: target}

	filename, err := OutputFilename(r.Options.SaveScreenshotsPath, target, r.Options.Format)
	if err != nil {
		result.Error = err
		return result
	}

	if err := os.MkdirAll(r.Options.SaveScreenshotsPath, os.ModePerm); err != nil {
		result.Error = err
		return result
	}

	req, err := shot.NewRequest(target, filename)
	if err != nil {
		result.Error = err
		return result
	}

	if _, err := r.shooter.Save(ctx, req, r.Options.Save); err != nil {
		if shot.IsTimeoutError(err) {
			log.Warnf("Timeout exceeded for %s", target)
		}
		result.Error = err
		return result
	}

	if r.Options.SaveUnique || r.Options.AvoidDuplicates {
		duplicate, err := r.isDuplicate(filename)
		if err != nil {
			log.Warnf("Could not perform uniqueness check: %v", err)
		} else if duplicate {
			log.Infof("Duplicate screenshot found for %s. Skipping save.", target)
			if err := os.Remove(filename); err != nil {
				log.Warnf("Could not remove duplicate %s: %v", filename, err)
			}
			result.Skipped = true
			return result
		}
	}

	result.File = filename
	log.Infof("Screenshot %s saved to %s", target, filename)
	return result
}

// SaveAs renders target straight into filename. Visited tracking and
// duplicate checks do not apply.
func (r *Runner) SaveAs(ctx context.Context, target, filename string) Result {
	result := Result{Target: target}

	normalizedTarget, err := Normalize(target)
	if err != nil {
		result.Error = err
		return result
	}
	result.URL = normalizedTarget

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			result.Error = err
			return result
		}
	}

	req, err := shot.NewRequest(normalizedTarget, filename)
	if err != nil {
		result.Error = err
		return result
	}

	if _, err := r.shooter.Save(ctx, req, r.Options.Save); err != nil {
		result.Error = err
		return result
	}

	result.File = filename
	log.Infof("Screenshot %s saved to %s", normalizedTarget, filename)
	return result
}

// isDuplicate compares the screenshot at path with every one kept so far and
// remembers it when it is new.
func (r *Runner) isDuplicate(path string) (bool, error) {
	image, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	sum := sha256.Sum256(image)
	hashStr := hex.EncodeToString(sum[:])

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.seenHashes[hashStr]; exists {
		return true, nil
	}

	if r.Options.AvoidDuplicates {
		similar, err := shot.IsSimilarToAny(image, r.images, r.Options.DuplicateThreshold)
		if err != nil {
			return false, err
		}
		if similar {
			return true, nil
		}
		r.images = append(r.images, image)
	}

	r.seenHashes[hashStr] = struct{}{}
	return false, nil
}

// OutputFilename maps a URL to a file in folderPath named after its scheme,
// host and path. A query adds a short hash so distinct queries get distinct files.
func OutputFilename(folderPath, rawURL, format string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	if u.Host == "" {
		return "", errMissingHost
	}

	host := u.Host
	if (u.Scheme == "http" && u.Port() == "80") || (u.Scheme == "https" && u.Port() == "443") {
		host = u.Hostname()
	}

	format = strings.TrimPrefix(strings.ToLower(format), ".")
	if format == "" {
		format = "png"
	}

	filename := u.Scheme + "_" + host + u.Path
	filename = strings.TrimSuffix(filename, "/")
	if u.RawQuery != "" {
		sum := sha256.Sum256([]byte(u.RawQuery))
		filename += "_" + hex.EncodeToString(sum[:4])
	}
	filename = strings.ReplaceAll(filename, "/", "_")
	filename = strings.ReplaceAll(filename, ":", "-")
	return filepath.Join(folderPath, strings.ToLower(filename)+"."+format), nil
}
