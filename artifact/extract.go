package artifact

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/e1732a364fed/xray_launcher/utils"
	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"
)

// EntryIter yields archive entries one by one in archive order.
// Entry content is only read when the caller opens it.
type EntryIter struct {
	zr  *zip.ReadCloser
	idx int
}

func OpenEntries(archive string) (*EntryIter, error) {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return nil, err
	}
	return &EntryIter{zr: zr}, nil
}

// Next returns the next entry, or nil, false when the archive is exhausted.
func (it *EntryIter) Next() (*zip.File, bool) {
	if it.idx >= len(it.zr.File) {
		return nil, false
	}
	f := it.zr.File[it.idx]
	it.idx++
	return f, true
}

func (it *EntryIter) Close() error {
	return it.zr.Close()
}

// Find stops at the first regular entry whose name contains name.
func (it *EntryIter) Find(name string) (*zip.File, bool) {
	for {
		f, ok := it.Next()
		if !ok {
			return nil, false
		}
		if f.FileInfo().IsDir() {
			continue
		}
		if strings.Contains(f.Name, name) {
			return f, true
		}
	}
}

// Extract writes the first entry matching name to dst with mode 0755 and
// removes the archive. It returns ErrEntryNotFound if nothing matches, and
// in that case, as with any stream error, dst is left untouched.
func Extract(archive, name, dst string) (err error) {
	it, err := OpenEntries(archive)
	if err != nil {
		return utils.ErrInErr{ErrDesc: "open archive failed", ErrDetail: err, Data: archive}
	}

	f, found := it.Find(name)
	if !found {
		it.Close()
		return utils.ErrInErr{ErrDesc: "extract failed", ErrDetail: ErrEntryNotFound, Data: name}
	}

	if ce := utils.CanLogInfo("Extracting"); ce != nil {
		ce.Write(zap.String("entry", f.Name), zap.String("to", dst))
	}

	err = writeEntry(f, dst)
	it.Close()
	if err != nil {
		return
	}

	if err = os.Remove(archive); err != nil {
		return
	}
	utils.Info("Extraction and cleanup complete.")
	return
}

// 先写到同目录下的临时文件, 成功后再 rename, 保证 dst 要么不存在要么是完整的
func writeEntry(f *zip.File, dst string) (err error) {
	if err = os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return
	}

	rc, err := f.Open()
	if err != nil {
		return
	}
	defer rc.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	//zip 的 Open 会校验 crc32, 数据不完整时 Copy 会返回错误
	if _, err = io.Copy(tmp, rc); err != nil {
		return
	}
	if err = tmp.Sync(); err != nil {
		return
	}
	if err = tmp.Close(); err != nil {
		return
	}
	if err = os.Chmod(tmpName, 0o755); err != nil {
		return
	}
	return os.Rename(tmpName, dst)
}
