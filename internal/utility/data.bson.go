package utility

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// CustomBson dùng để thực hiện các thao tác bson tùy chỉnh
// như set, push, unset bằng cách sử dụng các struct.
// Điều này rất hữu ích khi cần tạo bản đồ bson từ struct.
type CustomBson struct{}

// BsonWrapper chứa các thao tác bson cơ bản ($set, $push, $unset, $addToSet).
// Nó rất hữu ích để chuyển đổi struct thành bson update document.
type BsonWrapper struct {
	// Set sẽ đặt giá trị của các trường trong document.
	// Sau khi mã hóa thành bson, nó sẽ như { $set : {name : "Jack"}}
	Set interface{} `json:"$set,omitempty" bson:"$set,omitempty"`

	// Unset xóa một trường cụ thể. Nếu trường không tồn tại, Unset không làm gì cả.
	Unset interface{} `json:"$unset,omitempty" bson:"$unset,omitempty"`

	// Push thêm một giá trị vào một mảng.
	// Nếu trường không phải là một mảng, thao tác sẽ thất bại.
	Push interface{} `json:"$push,omitempty" bson:"$push,omitempty"`

	// AddToSet thêm một giá trị vào mảng trừ khi giá trị đã có.
	AddToSet interface{} `json:"$addToSet,omitempty" bson:"$addToSet,omitempty"`
}

// ToMap chuyển đổi struct thành bản đồ thông qua bson marshal/unmarshal,
// giữ nguyên tên field theo bson tags.
func ToMap(s interface{}) (map[string]interface{}, error) {
	var stringInterfaceMap map[string]interface{}
	itr, err := bson.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("bson marshal failed: %w", err)
	}
	err = bson.Unmarshal(itr, &stringInterfaceMap)
	if err != nil {
		return nil, fmt.Errorf("bson unmarshal failed: %w", err)
	}
	return stringInterfaceMap, nil
}

// Set tạo truy vấn $set để thay thế giá trị của các trường
func (customBson *CustomBson) Set(data interface{}) (map[string]interface{}, error) {
	s := BsonWrapper{Set: data}
	return ToMap(s)
}

// Push tạo truy vấn $push để thêm giá trị vào mảng
func (customBson *CustomBson) Push(data interface{}) (map[string]interface{}, error) {
	s := BsonWrapper{Push: data}
	return ToMap(s)
}

// Unset tạo truy vấn $unset để xóa trường
func (customBson *CustomBson) Unset(data interface{}) (map[string]interface{}, error) {
	s := BsonWrapper{Unset: data}
	return ToMap(s)
}

// AddToSet tạo truy vấn $addToSet để thêm giá trị duy nhất vào mảng
func (customBson *CustomBson) AddToSet(data interface{}) (map[string]interface{}, error) {
	s := BsonWrapper{AddToSet: data}
	return ToMap(s)
}
