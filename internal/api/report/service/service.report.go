// Package reportsvc - các truy vấn tổng hợp chỉ đọc phục vụ báo cáo.
// Không bao giờ ghi lên dữ liệu nghiệp vụ.
package reportsvc

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"vendor_compliance/internal/common"
	"vendor_compliance/internal/global"
)

// StatusCount là số hồ sơ theo một trạng thái
type StatusCount struct {
	Status string `json:"status" bson:"_id"`
	Count  int64  `json:"count" bson:"count"`
}

// CategoryRejectionCount là số lần từ chối theo một loại tài liệu
type CategoryRejectionCount struct {
	Category string `json:"category" bson:"_id"`
	Count    int64  `json:"count" bson:"count"`
}

// VendorPeriodSummary là tóm tắt một hồ sơ cho báo cáo vendor
type VendorPeriodSummary struct {
	Year              int    `json:"year" bson:"year"`
	Month             string `json:"month" bson:"month"`
	Status            string `json:"status" bson:"status"`
	DocumentCount     int    `json:"documentCount" bson:"documentCount"`
	ResubmissionCount int    `json:"resubmissionCount" bson:"resubmissionCount"`
}

// ReportService chạy các pipeline aggregation trên collection submissions
type ReportService struct {
	submissions   *mongo.Collection
	notifications *mongo.Collection
}

// NewReportService tạo mới ReportService
func NewReportService() (*ReportService, error) {
	submissions, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Submissions)
	if !exist {
		return nil, fmt.Errorf("failed to get submissions collection: %v", common.ErrNotFound)
	}
	notifications, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Notifications)
	if !exist {
		return nil, fmt.Errorf("failed to get notifications collection: %v", common.ErrNotFound)
	}
	return &ReportService{submissions: submissions, notifications: notifications}, nil
}

// StatusOverview đếm hồ sơ theo trạng thái cho một kỳ báo cáo
func (s *ReportService) StatusOverview(ctx context.Context, year int, month string) ([]StatusCount, error) {
	match := bson.M{}
	if year > 0 {
		match["year"] = year
	}
	if month != "" {
		match["month"] = month
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
		bson.D{{Key: "$sort", Value: bson.M{"count": -1}}},
	}

	cursor, err := s.submissions.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	defer cursor.Close(ctx)

	results := []StatusCount{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, common.ConvertMongoError(err)
	}
	return results, nil
}

// RejectionsByCategory đếm số dòng trong sổ từ chối theo loại tài liệu,
// giúp nhận ra loại tài liệu hay bị nộp sai nhất
func (s *ReportService) RejectionsByCategory(ctx context.Context, year int) ([]CategoryRejectionCount, error) {
	match := bson.M{"rejections.0": bson.M{"$exists": true}}
	if year > 0 {
		match["year"] = year
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$unwind", Value: "$rejections"}},
		bson.D{{Key: "$group", Value: bson.M{"_id": "$rejections.category", "count": bson.M{"$sum": 1}}}},
		bson.D{{Key: "$sort", Value: bson.M{"count": -1}}},
	}

	cursor, err := s.submissions.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	defer cursor.Close(ctx)

	results := []CategoryRejectionCount{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, common.ConvertMongoError(err)
	}
	return results, nil
}

// VendorHistory trả về tóm tắt các kỳ của một vendor, kỳ mới nhất trước
func (s *ReportService) VendorHistory(ctx context.Context, vendorID primitive.ObjectID) ([]VendorPeriodSummary, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"vendorId": vendorID}}},
		bson.D{{Key: "$project", Value: bson.M{
			"year":              1,
			"month":             1,
			"status":            1,
			"resubmissionCount": 1,
			"documentCount":     bson.M{"$size": bson.M{"$ifNull": bson.A{"$documents", bson.A{}}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.M{"year": -1, "createdAt": -1}}},
	}

	cursor, err := s.submissions.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	defer cursor.Close(ctx)

	results := []VendorPeriodSummary{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, common.ConvertMongoError(err)
	}
	return results, nil
}

// ConsultantWorkload là khối lượng hồ sơ đang chờ xử lý theo consultant
type ConsultantWorkload struct {
	ConsultantEmail string `json:"consultantEmail" bson:"_id"`
	Pending         int64  `json:"pending" bson:"pending"`
	Total           int64  `json:"total" bson:"total"`
}

// Workload đếm hồ sơ theo consultant được khai báo, tách riêng số đang chờ
// review (submitted, under_review, partially_approved) để cân tải
func (s *ReportService) Workload(ctx context.Context, year int) ([]ConsultantWorkload, error) {
	match := bson.M{"consultantEmail": bson.M{"$ne": ""}}
	if year > 0 {
		match["year"] = year
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   "$consultantEmail",
			"total": bson.M{"$sum": 1},
			"pending": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$in": bson.A{"$status", bson.A{"submitted", "under_review", "partially_approved"}}},
				1, 0,
			}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.M{"pending": -1}}},
	}

	cursor, err := s.submissions.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	defer cursor.Close(ctx)

	results := []ConsultantWorkload{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, common.ConvertMongoError(err)
	}
	return results, nil
}

// UnreadByType đếm thông báo chưa đọc theo loại cho một người nhận
func (s *ReportService) UnreadByType(ctx context.Context, recipientID primitive.ObjectID) ([]StatusCount, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"recipientId": recipientID, "isRead": false}}},
		bson.D{{Key: "$group", Value: bson.M{"_id": "$type", "count": bson.M{"$sum": 1}}}},
		bson.D{{Key: "$sort", Value: bson.M{"count": -1}}},
	}

	cursor, err := s.notifications.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	defer cursor.Close(ctx)

	results := []StatusCount{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, common.ConvertMongoError(err)
	}
	return results, nil
}
