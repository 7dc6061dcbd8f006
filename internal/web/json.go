package web

import (
	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
)

var _ echo.JSONSerializer = sonicSerializer{}

// sonicSerializer 替换 echo 默认的 encoding/json
type sonicSerializer struct{}

func (sonicSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := sonic.ConfigDefault.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (sonicSerializer) Deserialize(c echo.Context, i interface{}) error {
	err := sonic.ConfigDefault.NewDecoder(c.Request().Body).Decode(i)
	if err != nil {
		return echo.NewHTTPError(400, err.Error()).SetInternal(err)
	}
	return nil
}
