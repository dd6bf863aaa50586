package csvcodec

import (
	"regexp"

	"github.com/mesh-intelligence/larder/pkg/types"
)

var (
	numberPattern  = regexp.MustCompile(`^\d*\.?\d*$`)
	booleanPattern = regexp.MustCompile(`^true$|^false$|^t$|^f$|^0$|^1$`)
)

// InferColumnType infers the data type of column col from the data rows.
// Blank cells are ignored. The hypothesis starts at number; a value that is
// not numeric moves it to boolean if it is a boolean token, otherwise the
// column is string and scanning stops. Numeric values never move the
// hypothesis back. A column with no values at all is number.
func InferColumnType(rows [][]string, col int) types.DataType {
	dt := types.DataTypeNumber
	for _, row := range rows {
		v := cell(row, col)
		if v == "" || numberPattern.MatchString(v) {
			continue
		}
		if !booleanPattern.MatchString(v) {
			return types.DataTypeString
		}
		dt = types.DataTypeBoolean
	}
	return dt
}
