package util

import (
	"Hearth/internal/pkg/consts"
	"bytes"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLen 嗅探文件类型读取的字节数
const sniffLen = 3072

// DetectImage 嗅探文件头判断是否为图片，返回可继续完整读取的 reader
func DetectImage(r io.Reader) (io.Reader, string, bool, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, "", false, err
	}
	head = head[:n]

	mime := mimetype.Detect(head)
	contentType := mime.String()
	full := io.MultiReader(bytes.NewReader(head), r)
	return full, contentType, strings.HasPrefix(contentType, consts.MimePrefixImage+"/"), nil
}
