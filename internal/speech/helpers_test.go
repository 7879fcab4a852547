package speech

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writePiperStub installs a fake piper that records its argv and stdin, then
// writes a WAV to --output_file or exits with exitCode.
func writePiperStub(t *testing.T, exitCode int) (bin string, argsFile string, stdinFile string) {
	t.Helper()

	dir := t.TempDir()
	bin = filepath.Join(dir, "piper")
	argsFile = filepath.Join(dir, "args.txt")
	stdinFile = filepath.Join(dir, "stdin.txt")
	script := fmt.Sprintf(`#!/usr/bin/env bash
set -euo pipefail
printf '%%s\n' "$*" > %q
out=""
while [[ $# -gt 0 ]]; do
  case "$1" in
    --output_file) out="$2"; shift 2 ;;
    *) shift ;;
  esac
done
cat > %q
if [[ %d -ne 0 ]]; then
  echo "failed to load voice model" >&2
  exit %d
fi
printf 'RIFF----WAVE' > "$out"
`, argsFile, stdinFile, exitCode, exitCode)
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))
	return bin, argsFile, stdinFile
}

// writeArgsScript installs a command that appends its argv to a file.
func writeArgsScript(t *testing.T, name string) (bin string, argsFile string) {
	t.Helper()

	dir := t.TempDir()
	bin = filepath.Join(dir, name)
	argsFile = filepath.Join(dir, "args.txt")
	script := fmt.Sprintf("#!/usr/bin/env bash\nset -euo pipefail\nprintf '%%s\\n' \"$@\" >> %q\n", argsFile)
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))
	return bin, argsFile
}

func writeFailScript(t *testing.T, message string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "fail.sh")
	script := "#!/usr/bin/env bash\nset -euo pipefail\necho " + "\"" + message + "\"" + " >&2\nexit 1\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func writeModel(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "en_US-ryan-high.onnx")
	require.NoError(t, os.WriteFile(path, []byte("onnx"), 0o600))
	return path
}

func requireEmptyDir(t *testing.T, dir string) {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

// recordingPlayer captures the artifact path and whether it existed at play time.
type recordingPlayer struct {
	path    string
	existed bool
	err     error
}

func (p *recordingPlayer) Play(_ context.Context, path string) error {
	p.path = path
	_, statErr := os.Stat(path)
	p.existed = statErr == nil
	return p.err
}

// fakeBackend is a scripted Backend/Preferred used to exercise Engine policy.
type fakeBackend struct {
	name     string
	readyErr error
	speakErr error
	spoken   []string
}

func (b *fakeBackend) Name() string { return b.name }

func (b *fakeBackend) Ready() error { return b.readyErr }

func (b *fakeBackend) Speak(_ context.Context, phrase string) error {
	b.spoken = append(b.spoken, phrase)
	return b.speakErr
}

func buildWAV(sampleRate, channels int, samples []int16, extraChunks ...[]byte) []byte {
	fmtChunk := make([]byte, 24)
	copy(fmtChunk[0:4], "fmt ")
	binary.LittleEndian.PutUint32(fmtChunk[4:8], 16)
	binary.LittleEndian.PutUint16(fmtChunk[8:10], wavFormatPCM)
	binary.LittleEndian.PutUint16(fmtChunk[10:12], uint16(channels))
	binary.LittleEndian.PutUint32(fmtChunk[12:16], uint32(sampleRate))
	binary.LittleEndian.PutUint32(fmtChunk[16:20], uint32(sampleRate*channels*2))
	binary.LittleEndian.PutUint16(fmtChunk[20:22], uint16(channels*2))
	binary.LittleEndian.PutUint16(fmtChunk[22:24], 16)

	data := make([]byte, 8+2*len(samples))
	copy(data[0:4], "data")
	binary.LittleEndian.PutUint32(data[4:8], uint32(2*len(samples)))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[8+2*i:], uint16(s))
	}

	body := []byte("WAVE")
	body = append(body, fmtChunk...)
	for _, chunk := range extraChunks {
		body = append(body, chunk...)
	}
	body = append(body, data...)

	out := make([]byte, 8, 8+len(body))
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(body)))
	return append(out, body...)
}
