package convert

import (
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
)

// CopyStruct copies matching exported fields from source into target.
// CopyStruct 将 source 中同名导出字段复制到 target
func CopyStruct(target interface{}, source interface{}) error {
	if err := copier.Copy(target, source); err != nil {
		return errors.Wrap(err, "copy struct")
	}
	return nil
}
