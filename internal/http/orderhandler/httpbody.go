package orderhandler

type PlaceOrderBody struct {
	UserID string  `json:"user_id" binding:"required"      example:"u1"`
	Total  float64 `json:"total"   binding:"required,gt=0" example:"23.90"`
} // @name PlaceOrderRequest

type UpdateStatusBody struct {
	Status         string `json:"status"          binding:"required,oneof=placed confirmed preparing dispatched delivered cancelled paid" example:"preparing"`
	DeliveryStatus string `json:"delivery_status" binding:"omitempty,oneof=assigned picked_up on_the_way arrived"                         example:"on_the_way"`
} // @name UpdateStatusRequest

type AssignCourierBody struct {
	CourierID string `json:"courier_id" binding:"required" example:"d7"`
} // @name AssignCourierRequest

type MarkReadBody struct {
	UserID string `json:"user_id" binding:"required" example:"u1"`
} // @name MarkReadRequest

type MarkReadResponse struct {
	Unread int64 `json:"unread"`
} // @name MarkReadResponse

type ErrorResponse struct {
	Error string `json:"error"`
} // @name ErrorResponse

type ListOrdersQuery struct {
	Status string `form:"status"  binding:"omitempty,oneof=placed confirmed preparing dispatched delivered cancelled paid"`
	Limit  int    `form:"limit,default=10"  binding:"gte=0,lte=100"`
	Offset int    `form:"offset,default=0"  binding:"gte=0"`
} // @name ListOrdersQuery

type ListNotificationsQuery struct {
	Limit int `form:"limit,default=20" binding:"gte=0,lte=100"`
} // @name ListNotificationsQuery
