// Package pooling 提供按键管理的对象复用：调用方基于模板对象注册一个预先分配好
// 实例的池，之后反复借出与归还实例，而不是按需创建和销毁。
//
// 基本用法:
//
//	sys := pooling.NewSystem(pooling.WithLogger(logger.NewLogger()))
//	pooling.MustRegister[*scene.Node](sys, scene.NewNodeProcessor(world))
//
//	if err := pooling.CreatePool(sys, source, source, 8); err != nil {
//		// 参数无效、池已存在或类型没有注册 Processor
//	}
//
//	node, ok := pooling.TryGetInstance[*scene.Node](sys, source)
//	if ok {
//		defer pooling.ReturnInstance(sys, source, node)
//	}
//
// 池的大小在创建后固定。借出时优先使用第一个空闲实例，
// 没有空闲实例时回收激活时间最早的实例，因此只要池存在，借出总会成功。
//
// 同一个 key 可以同时拥有不同类型的池，池由 (key, 类型) 唯一确定。
// 除 MustRegister 外，所有失败都以错误返回并通过日志告警，不会 panic；
// 唯一的例外是 Processor 钩子内部的 panic，它会直接传播给调用方。
package pooling
