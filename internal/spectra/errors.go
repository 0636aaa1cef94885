package spectra

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
)

// ErrEmptySelection is reported in Result.Warnings when the configured time
// and frequency window holds no sample.
var ErrEmptySelection = errors.New("selection leads to an empty dataset")

// ConfigurationError is returned by the Configuration setters for values
// that cannot be used.
type ConfigurationError struct {
	msg string
}

func newConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{msg: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	return "spectra: " + e.msg
}

// IsConfigurationError reports whether any error in err's chain is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// DataQualityNotice summarises the data excluded when a file was opened.
type DataQualityNotice struct {
	Blocks        int   // complete blocks in the file
	BadBlocks     int   // blocks with lost packets or unusable timing
	TrailingBytes int64 // bytes after the last complete block
}

// Good returns the number of usable blocks.
func (n DataQualityNotice) Good() int {
	return n.Blocks - n.BadBlocks
}

func (n DataQualityNotice) String() string {
	return fmt.Sprintf("%s/%s blocks containing missing data and/or wrong time information, %s trailing",
		humanize.Comma(int64(n.BadBlocks)), humanize.Comma(int64(n.Blocks)), humanize.IBytes(uint64(n.TrailingBytes)))
}
